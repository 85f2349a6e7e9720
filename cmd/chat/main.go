// Package main 是终端聊天客户端的入口点。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"corpwise-go/internal/api"
	"corpwise-go/internal/config"
	"corpwise-go/internal/conversation"
	"corpwise-go/internal/identity"
	"corpwise-go/internal/session"
	"corpwise-go/pkg/log"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	stream := flag.Bool("stream", false, "通过 WebSocket 流式接收回答")
	flag.Parse()

	config.Init(*configPath)
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	store, err := newIdentityStore(cfg.Identity.Path)
	if err != nil {
		log.Fatalf("身份存储初始化失败: %v", err)
	}
	client, err := api.NewClient(cfg.Backend)
	if err != nil {
		log.Fatalf("后端客户端初始化失败: %v", err)
	}

	machine := session.NewMachine(client, store)
	in := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	state, err := authenticate(ctx, machine, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "登录失败: %v\n", err)
		os.Exit(1)
	}

	userID, err := store.GetOrCreateUserID()
	if err != nil {
		log.Fatalf("读取用户标识失败: %v", err)
	}

	mgr := conversation.NewManager(client, userID, state.CompanyID, nil)
	mgr.RefreshHistory(ctx)

	fmt.Printf("已登录: %s（租户 %s）。输入消息开始聊天，/help 查看命令。\n", state.Username, state.CompanyID)
	repl(ctx, mgr, machine, in, *stream)
}

func newIdentityStore(path string) (identity.Store, error) {
	if path == "" {
		p, err := identity.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return identity.NewFileStore(path)
}

// authenticate 引导用户登录或注册，直到建立 User 会话。
func authenticate(ctx context.Context, machine *session.Machine, in *bufio.Scanner) (session.State, error) {
	for {
		action := prompt(in, "login 或 signup? [login] ")
		username := prompt(in, "用户名: ")
		password := prompt(in, "口令: ")

		if action == "signup" {
			companyID := prompt(in, "组织ID: ")
			if err := machine.RegisterUser(ctx, username, password, companyID); err != nil {
				fmt.Printf("注册失败: %v\n", err)
				continue
			}
			fmt.Println("注册成功，请登录。")
			continue
		}

		state, err := machine.AuthenticateUser(ctx, username, password)
		if err != nil {
			if api.IsNetwork(err) {
				fmt.Printf("网络错误: %v（可直接重试）\n", err)
			} else {
				fmt.Printf("登录失败: %v\n", err)
			}
			continue
		}
		return state, nil
	}
}

func repl(ctx context.Context, mgr *conversation.Manager, machine *session.Machine, in *bufio.Scanner, stream bool) {
	for {
		line := prompt(in, "> ")
		switch {
		case line == "":
			continue
		case line == "/quit":
			if err := machine.SignOut(); err != nil {
				log.Warnf("登出时清理身份失败: %v", err)
			}
			return
		case line == "/help":
			fmt.Println("/new 开新会话  /history 列出历史  /load N 载入第N条历史  /good /bad 反馈  /quit 登出退出")
		case line == "/new":
			mgr.StartNewChat()
			fmt.Println("已开启新会话。")
		case line == "/history":
			printHistory(mgr)
		case strings.HasPrefix(line, "/load "):
			loadHistory(mgr, strings.TrimPrefix(line, "/load "))
		case line == "/good":
			mgr.Feedback(ctx, true, "")
			fmt.Println("感谢反馈。")
		case line == "/bad":
			reason := prompt(in, "原因（可留空）: ")
			mgr.Feedback(ctx, false, reason)
			fmt.Println("感谢反馈。")
		default:
			ask(ctx, mgr, line, stream)
		}
	}
}

func ask(ctx context.Context, mgr *conversation.Manager, text string, stream bool) {
	if stream {
		mgr.SendStream(ctx, text, func(chunk string) { fmt.Print(chunk) })
		fmt.Println()
	} else {
		mgr.Send(ctx, text)
	}
	printLast(mgr, stream)
}

// printLast 输出最近一轮问答的助手消息与元信息。
func printLast(mgr *conversation.Manager, streamed bool) {
	msgs := mgr.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != conversation.RoleAssistant {
		return
	}
	if !streamed {
		fmt.Println(last.Content)
	}
	if last.Meta != nil {
		tag := ""
		if last.Meta.Cached {
			tag = "，缓存命中"
		}
		fmt.Printf("  [置信度 %s%s] 来源: %s\n", last.Meta.Confidence, tag, strings.Join(last.Meta.Sources, ", "))
	}
}

func printHistory(mgr *conversation.Manager) {
	history := mgr.History()
	if len(history) == 0 {
		fmt.Println("暂无历史会话。")
		return
	}
	for i, h := range history {
		fmt.Printf("%2d. %s (%s)\n", i+1, h.Title, h.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func loadHistory(mgr *conversation.Manager, arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		fmt.Println("用法: /load N")
		return
	}
	history := mgr.History()
	if n > len(history) {
		fmt.Println("没有这条历史。")
		return
	}
	mgr.LoadConversation(history[n-1])
	for _, m := range mgr.Messages() {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}

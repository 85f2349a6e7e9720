// Package main 是管理端命令行工具的入口点。
//
// 用法:
//
//	corpctl [-config path] <command> [args]
//
// 命令:
//
//	register                          注册新组织（交互式，带档位推荐）
//	docs list|upload|delete           文档管理
//	keys list|generate|revoke         API 密钥管理
//	tiers                             列出订阅档位
//	upgrade <tier>                    变更本组织的订阅档位
//	super companies|stats|delete|tier|status   超管操作
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"corpwise-go/internal/api"
	"corpwise-go/internal/config"
	"corpwise-go/internal/identity"
	"corpwise-go/internal/session"
	"corpwise-go/internal/tier"
	"corpwise-go/pkg/log"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	username := flag.String("u", "", "管理员用户名")
	password := flag.String("p", "", "管理员口令")
	companyID := flag.String("c", "", "组织ID")
	flag.Parse()

	config.Init(*configPath)
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	client, err := api.NewClient(cfg.Backend)
	if err != nil {
		log.Fatalf("后端客户端初始化失败: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	app := &cli{client: client, identityPath: cfg.Identity.Path}

	var runErr error
	switch args[0] {
	case "register":
		runErr = app.register(ctx)
	case "tiers":
		runErr = app.listTiers(ctx)
	case "docs":
		runErr = app.docs(ctx, *username, *password, *companyID, args[1:])
	case "keys":
		runErr = app.keys(ctx, *username, *password, *companyID, args[1:])
	case "upgrade":
		runErr = app.upgrade(ctx, *username, *password, *companyID, args[1:])
	case "super":
		runErr = app.super(ctx, *username, *password, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n", args[0])
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", runErr)
		os.Exit(1)
	}
}

type cli struct {
	client       *api.Client
	identityPath string
}

func (a *cli) store() (identity.Store, error) {
	path := a.identityPath
	if path == "" {
		p, err := identity.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return identity.NewFileStore(path)
}

// adminLogin 建立一个 Admin 会话并返回其状态。
func (a *cli) adminLogin(ctx context.Context, username, password, companyID string) (session.State, error) {
	if username == "" || password == "" || companyID == "" {
		return session.State{}, fmt.Errorf("需要 -u -p -c 三个参数")
	}
	store, err := a.store()
	if err != nil {
		return session.State{}, err
	}
	machine := session.NewMachine(a.client, store)
	return machine.AuthenticateAdmin(ctx, username, password, companyID)
}

// superLogin 建立一个 SuperAdmin 会话并返回令牌。
func (a *cli) superLogin(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("需要 -u -p 两个参数")
	}
	store, err := a.store()
	if err != nil {
		return "", err
	}
	machine := session.NewMachine(a.client, store)
	state, err := machine.AuthenticateAdmin(ctx, username, password, "ignored")
	if err != nil {
		return "", err
	}
	if !state.CanSuperAdministrate() {
		return "", fmt.Errorf("该账号不是超级管理员")
	}
	return state.Token, nil
}

// register 交互式注册一个组织：先用问卷推荐档位，再提交注册。
func (a *cli) register(ctx context.Context) error {
	in := bufio.NewScanner(os.Stdin)
	username := prompt(in, "管理员用户名: ")
	password := prompt(in, "口令: ")
	companyID := prompt(in, "组织ID: ")

	answers := tier.Answers{
		DocumentTypes: strings.Fields(prompt(in, "文档类型（空格分隔，如 policies technical）: ")),
		Languages:     atoi(prompt(in, "需要支持的语言数量: ")),
		Complexity:    prompt(in, "问题复杂度 (simple/technical/specialized): "),
		CompanySize:   prompt(in, "公司规模 (1-50/51-200/201-500/500+): "),
	}
	recommended := tier.Recommend(answers)
	fmt.Printf("推荐档位: %s\n", recommended)

	chosen := prompt(in, fmt.Sprintf("选择档位 [%s]: ", recommended))
	if chosen == "" {
		chosen = string(recommended)
	}

	store, err := a.store()
	if err != nil {
		return err
	}
	machine := session.NewMachine(a.client, store)
	resp, err := machine.RegisterCompany(ctx, username, password, companyID, chosen)
	if err != nil {
		return err
	}
	fmt.Printf("组织 %s 注册成功（档位 %s），请使用 -u -p -c 登录。\n", resp.CompanyID, resp.SubscriptionTier)
	return nil
}

func (a *cli) listTiers(ctx context.Context) error {
	resp, err := a.client.FetchTiers(ctx)
	if err != nil {
		return err
	}
	for id, t := range resp.Tiers {
		fmt.Printf("%-14s %s\n", id, describeTier(t))
	}
	return nil
}

func describeTier(t api.Tier) string {
	price := "Custom Pricing"
	if t.PriceMonthly != nil {
		price = fmt.Sprintf("₹%.0f/月", *t.PriceMonthly)
	}
	return fmt.Sprintf("文档 %s, 员工 %s, 查询 %s, %s",
		limitStr(t.MaxDocuments), limitStr(t.MaxEmployees), limitStr(t.MaxQueriesPerMo), price)
}

func limitStr(n int) string {
	if n < 0 {
		return "不限"
	}
	return strconv.Itoa(n)
}

func (a *cli) docs(ctx context.Context, username, password, companyID string, args []string) error {
	state, err := a.adminLogin(ctx, username, password, companyID)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("用法: docs list|upload <file> [doc_type]|delete <id>")
	}
	switch args[0] {
	case "list":
		docs, err := a.client.ListDocuments(ctx, state.CompanyID)
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Printf("%s  %-30s %-12s %s\n", d.ID, d.Filename, d.DocType, d.Status)
		}
		return nil
	case "upload":
		if len(args) < 2 {
			return fmt.Errorf("用法: docs upload <file> [doc_type]")
		}
		docType := "general"
		if len(args) > 2 {
			docType = args[2]
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := a.client.UploadDocument(ctx, state.CompanyID, filepath.Base(args[1]), f, docType)
		if err != nil {
			return err
		}
		fmt.Printf("已上传: %s (%s)\n", doc.Filename, doc.ID)
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("用法: docs delete <id>")
		}
		if !confirm(fmt.Sprintf("确认删除文档 %s?", args[1])) {
			fmt.Println("已取消。")
			return nil
		}
		if err := a.client.DeleteDocument(ctx, state.CompanyID, args[1]); err != nil {
			return err
		}
		fmt.Println("已删除。")
		return nil
	default:
		return fmt.Errorf("未知子命令: docs %s", args[0])
	}
}

func (a *cli) keys(ctx context.Context, username, password, companyID string, args []string) error {
	state, err := a.adminLogin(ctx, username, password, companyID)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("用法: keys list|generate <name>|revoke <id>")
	}
	switch args[0] {
	case "list":
		keys, err := a.client.ListAPIKeys(ctx, state.CompanyID)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Printf("%s  %-20s %s...  %s\n", k.KeyID, k.Name, k.Prefix, k.Status)
		}
		return nil
	case "generate":
		name := "Default Key"
		if len(args) > 1 {
			name = args[1]
		}
		gen, err := a.client.GenerateAPIKey(ctx, state.CompanyID, name)
		if err != nil {
			return err
		}
		// 明文密钥只显示这一次
		fmt.Printf("新密钥（请立即保存，之后不再显示）:\n%s\n", gen.RawKey)
		return nil
	case "revoke":
		if len(args) < 2 {
			return fmt.Errorf("用法: keys revoke <id>")
		}
		if err := a.client.RevokeAPIKey(ctx, state.CompanyID, args[1]); err != nil {
			return err
		}
		fmt.Println("已吊销。")
		return nil
	default:
		return fmt.Errorf("未知子命令: keys %s", args[0])
	}
}

// upgrade 变更本组织的订阅档位。降档前用当前文档量做容量核对。
func (a *cli) upgrade(ctx context.Context, username, password, companyID string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("用法: upgrade <tier>")
	}
	target := tier.ID(args[0])

	state, err := a.adminLogin(ctx, username, password, companyID)
	if err != nil {
		return err
	}

	resp, err := a.client.FetchTiers(ctx)
	if err != nil {
		return err
	}
	docs, err := a.client.ListDocuments(ctx, state.CompanyID)
	if err != nil {
		return err
	}
	decision := tier.Reconcile(target, tier.Usage{Documents: len(docs)}, resp.Tiers)
	if !decision.Allowed {
		return fmt.Errorf("无法切换到 %s: %s", target, strings.Join(decision.Reasons, "; "))
	}

	if err := a.client.UpdateTier(ctx, state.CompanyID, string(target)); err != nil {
		return err
	}
	fmt.Printf("已切换到 %s。\n", target)
	return nil
}

func (a *cli) super(ctx context.Context, username, password string, args []string) error {
	token, err := a.superLogin(ctx, username, password)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("用法: super companies|stats|delete <cid>|tier <cid> <tier>|status <cid> <status>")
	}
	switch args[0] {
	case "companies":
		companies, err := a.client.ListCompanies(ctx, token)
		if err != nil {
			return err
		}
		for _, c := range companies {
			fmt.Printf("%-20s %-12s %-10s 文档 %d, 本月查询 %d\n",
				c.CompanyID, c.SubscriptionTier, c.SubscriptionStatus,
				c.Usage.DocumentsCount, c.Usage.QueriesThisMonth)
		}
		return nil
	case "stats":
		stats, err := a.client.FetchStatistics(ctx, token)
		if err != nil {
			return err
		}
		fmt.Printf("组织总数 %d（活跃 %d），文档 %d，本月查询 %d\n",
			stats.TotalCompanies, stats.ActiveCompanies, stats.TotalDocuments, stats.TotalQueriesThisMonth)
		for id, n := range stats.TierDistribution {
			fmt.Printf("  %-14s %d\n", id, n)
		}
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("用法: super delete <cid>")
		}
		if !confirm(fmt.Sprintf("确认删除组织 %s 及其全部数据? 此操作不可恢复。", args[1])) {
			fmt.Println("已取消。")
			return nil
		}
		if err := a.client.DeleteCompany(ctx, token, args[1]); err != nil {
			return err
		}
		fmt.Println("已删除。")
		return nil
	case "tier":
		if len(args) < 3 {
			return fmt.Errorf("用法: super tier <cid> <tier>")
		}
		if err := a.client.UpdateCompanyTier(ctx, token, args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("已更新档位。")
		return nil
	case "status":
		if len(args) < 3 {
			return fmt.Errorf("用法: super status <cid> <status>")
		}
		if err := a.client.UpdateCompanyStatus(ctx, token, args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("已更新状态。")
		return nil
	default:
		return fmt.Errorf("未知子命令: super %s", args[0])
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}

// confirm 要求用户输入 y 才放行，其余输入一律视为取消。
func confirm(question string) bool {
	in := bufio.NewScanner(os.Stdin)
	answer := prompt(in, question+" [y/N] ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

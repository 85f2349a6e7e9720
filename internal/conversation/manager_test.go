package conversation

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"corpwise-go/internal/api"
	"corpwise-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.InitDefault()
	os.Exit(m.Run())
}

// fakeChatGateway 是可编程的聊天网关替身。
type fakeChatGateway struct {
	mu         sync.Mutex
	resp       *api.ChatResponse
	err        error
	history    []api.HistorySummary
	historyErr error

	sentQuestions []string
	sentConvIDs   []string
	feedbacks     []bool

	// beforeReply 在返回响应前被调用，用于在请求“在途”时做会话切换
	beforeReply func()
}

func (g *fakeChatGateway) SendChat(_ context.Context, _, _, conversationID, question string) (*api.ChatResponse, error) {
	g.mu.Lock()
	g.sentQuestions = append(g.sentQuestions, question)
	g.sentConvIDs = append(g.sentConvIDs, conversationID)
	before := g.beforeReply
	g.mu.Unlock()
	if before != nil {
		before()
	}
	return g.resp, g.err
}

func (g *fakeChatGateway) StreamChat(ctx context.Context, userID, companyID, conversationID, question string, onChunk func(string)) (*api.ChatResponse, error) {
	if g.resp != nil && onChunk != nil {
		onChunk(g.resp.Reply)
	}
	return g.SendChat(ctx, userID, companyID, conversationID, question)
}

func (g *fakeChatGateway) History(_ context.Context, _ string) ([]api.HistorySummary, error) {
	return g.history, g.historyErr
}

func (g *fakeChatGateway) SendFeedback(_ context.Context, _ string, helpful bool, _ string) {
	g.mu.Lock()
	g.feedbacks = append(g.feedbacks, helpful)
	g.mu.Unlock()
}

func okResponse() *api.ChatResponse {
	return &api.ChatResponse{
		Reply:      "You get 15 days.",
		Confidence: "high",
		Sources:    []string{"hr/pto.pdf"},
		Cached:     false,
	}
}

func TestSendSettlesOptimisticMessage(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	m.Send(context.Background(), "  how many PTO days?  ")

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("期望 2 条消息（用户+助手）, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "how many PTO days?" {
		t.Errorf("用户消息应去除首尾空白后入日志: %+v", msgs[0])
	}
	if msgs[0].Status != StatusSettled {
		t.Errorf("成功后用户消息应结算, got %v", msgs[0].Status)
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "You get 15 days." {
		t.Errorf("助手消息不正确: %+v", msgs[1])
	}
	if msgs[1].Meta == nil || msgs[1].Meta.Confidence != "high" {
		t.Errorf("助手消息应携带元信息: %+v", msgs[1].Meta)
	}
}

func TestSendEmptyIsNoop(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	m.Send(context.Background(), "   \t  ")

	if len(m.Messages()) != 0 {
		t.Errorf("空白消息不应进入日志: %v", m.Messages())
	}
	if len(gw.sentQuestions) != 0 {
		t.Errorf("空白消息不应触发请求: %v", gw.sentQuestions)
	}
}

func TestSendFailureAppendsNotice(t *testing.T) {
	gw := &fakeChatGateway{err: errors.New("connection refused")}
	m := NewManager(gw, "u1", "acme", nil)

	m.Send(context.Background(), "hello")

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("期望 2 条消息（失败的用户消息+合成提示）, got %d", len(msgs))
	}
	if msgs[0].Status != StatusFailed {
		t.Errorf("失败后用户消息应标记 Failed, got %v", msgs[0].Status)
	}
	if msgs[0].Content != "hello" {
		t.Errorf("失败不应回滚用户消息, got %q", msgs[0].Content)
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != failureNotice {
		t.Errorf("应追加合成失败提示, got %+v", msgs[1])
	}
}

func TestSendPendingWhileInFlight(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	// 请求在途时快照消息日志，用户消息此刻应已乐观入列且处于 Pending
	var inFlight []Message
	gw.beforeReply = func() { inFlight = m.Messages() }

	m.Send(context.Background(), "how many PTO days?")

	if len(inFlight) != 1 {
		t.Fatalf("在途时应只有乐观入列的用户消息, got %d", len(inFlight))
	}
	if inFlight[0].Role != RoleUser || inFlight[0].Content != "how many PTO days?" {
		t.Errorf("在途消息应为用户提问: %+v", inFlight[0])
	}
	if inFlight[0].Status != StatusPending {
		t.Errorf("响应到达前用户消息应处于 Pending, got %v", inFlight[0].Status)
	}
	if got := m.Messages(); len(got) != 2 || got[0].Status != StatusSettled {
		t.Errorf("响应到达后用户消息应结算: %v", got)
	}
}

func TestStartNewChatRotatesID(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	first := m.ConversationID()
	if first == "" {
		t.Fatal("管理器创建后应立即持有会话ID")
	}
	m.StartNewChat()
	if m.ConversationID() == first {
		t.Error("StartNewChat 应生成新的会话ID")
	}
	if len(m.Messages()) != 0 {
		t.Error("StartNewChat 应清空消息日志")
	}
	if len(gw.sentQuestions) != 0 {
		t.Error("StartNewChat 不应触达后端")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	// 请求在途时切换会话，迟到的响应必须被整体丢弃
	gw.beforeReply = func() { m.StartNewChat() }

	m.Send(context.Background(), "question for the old conversation")

	if len(m.Messages()) != 0 {
		t.Errorf("过期响应不应写入新会话的日志: %v", m.Messages())
	}
}

func TestLoadConversation(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	summary := api.HistorySummary{
		ConversationID: "conv-42",
		Title:          "PTO questions",
		Messages: []api.HistoryMessage{
			{Role: RoleUser, Content: "how many days?"},
			{Role: RoleAssistant, Content: "15 days"},
		},
	}
	m.LoadConversation(summary)

	if m.ConversationID() != "conv-42" {
		t.Errorf("应切换到历史会话ID, got %q", m.ConversationID())
	}
	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("期望加载 2 条消息, got %d", len(msgs))
	}
	if msgs[0].Status != StatusSettled || msgs[1].Status != StatusSettled {
		t.Error("历史消息应以 Settled 状态加载")
	}
}

func TestSendUsesCurrentConversationID(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	m.LoadConversation(api.HistorySummary{ConversationID: "conv-7"})
	m.Send(context.Background(), "follow-up")

	if len(gw.sentConvIDs) != 1 || gw.sentConvIDs[0] != "conv-7" {
		t.Errorf("请求应携带当前会话ID, got %v", gw.sentConvIDs)
	}
}

func TestRefreshHistorySortsDescending(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gw := &fakeChatGateway{
		resp: okResponse(),
		history: []api.HistorySummary{
			{ConversationID: "a", UpdatedAt: old},
			{ConversationID: "b", UpdatedAt: old.Add(48 * time.Hour)},
			{ConversationID: "c", UpdatedAt: old.Add(24 * time.Hour)},
		},
	}
	m := NewManager(gw, "u1", "acme", nil)

	m.RefreshHistory(context.Background())

	history := m.History()
	if len(history) != 3 {
		t.Fatalf("期望 3 条历史, got %d", len(history))
	}
	if history[0].ConversationID != "b" || history[1].ConversationID != "c" || history[2].ConversationID != "a" {
		t.Errorf("历史应按更新时间降序: %v", []string{history[0].ConversationID, history[1].ConversationID, history[2].ConversationID})
	}
}

func TestRefreshHistoryFailureKeepsOld(t *testing.T) {
	gw := &fakeChatGateway{
		history: []api.HistorySummary{{ConversationID: "a"}},
	}
	m := NewManager(gw, "u1", "acme", nil)
	m.RefreshHistory(context.Background())

	gw.historyErr = errors.New("backend down")
	gw.history = nil
	m.RefreshHistory(context.Background())

	if len(m.History()) != 1 {
		t.Errorf("历史拉取失败时应保留旧目录: %v", m.History())
	}
}

func TestSendStreamDeliversChunks(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	var streamed string
	m.SendStream(context.Background(), "hello", func(chunk string) { streamed += chunk })

	if streamed != "You get 15 days." {
		t.Errorf("增量内容应经 onChunk 回调, got %q", streamed)
	}
	msgs := m.Messages()
	if len(msgs) != 2 || msgs[1].Content != "You get 15 days." {
		t.Errorf("终帧后整条助手消息应入日志: %v", msgs)
	}
}

func TestOnChangeNotified(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	var calls int
	m := NewManager(gw, "u1", "acme", func() { calls++ })

	m.Send(context.Background(), "hello")
	if calls == 0 {
		t.Error("消息日志变化后应触发 onChange")
	}
}

func TestFeedbackDelegates(t *testing.T) {
	gw := &fakeChatGateway{resp: okResponse()}
	m := NewManager(gw, "u1", "acme", nil)

	m.Feedback(context.Background(), true, "")
	m.Feedback(context.Background(), false, "wrong answer")

	if len(gw.feedbacks) != 2 || !gw.feedbacks[0] || gw.feedbacks[1] {
		t.Errorf("反馈应透传给网关: %v", gw.feedbacks)
	}
}

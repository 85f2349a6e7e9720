package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"corpwise-go/internal/api"
	"corpwise-go/pkg/log"
)

// ChatGateway 抽象了会话管理器依赖的后端接口，便于测试替换。
type ChatGateway interface {
	SendChat(ctx context.Context, userID, companyID, conversationID, question string) (*api.ChatResponse, error)
	StreamChat(ctx context.Context, userID, companyID, conversationID, question string, onChunk func(string)) (*api.ChatResponse, error)
	History(ctx context.Context, userID string) ([]api.HistorySummary, error)
	SendFeedback(ctx context.Context, conversationID string, helpful bool, reason string)
}

// Manager 拥有活跃会话的标识与有序消息日志。
//
// 会话在客户端惰性创建：StartNewChat 只生成新ID，首条消息发出后
// 才在后端落地。后端是会话内容的权威存储，客户端不提供独立的保存操作。
type Manager struct {
	gateway   ChatGateway
	userID    string
	companyID string

	// sendMu 将同一管理器上的发送串行化：同一会话上并发的发送
	// 等价于顺序发送，由互斥量的获取顺序决定先后。
	sendMu sync.Mutex

	mu             sync.Mutex
	conversationID string
	generation     uint64
	messages       []Message
	history        []api.HistorySummary
	onChange       func()
}

// NewManager 创建一个会话管理器并立即开启一个空会话。
// onChange 在消息日志或历史目录变化后被调用（可为 nil），供 UI 重绘。
func NewManager(gateway ChatGateway, userID, companyID string, onChange func()) *Manager {
	m := &Manager{
		gateway:   gateway,
		userID:    userID,
		companyID: companyID,
		onChange:  onChange,
	}
	m.conversationID = uuid.NewString()
	return m
}

// notify 在不持有锁的情况下触发变更回调。
func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}

// ConversationID 返回当前活跃会话的ID。
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// Messages 返回当前消息日志的副本。
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// History 返回历史目录的副本（按 UpdatedAt 降序）。
func (m *Manager) History() []api.HistorySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.HistorySummary, len(m.history))
	copy(out, m.history)
	return out
}

// StartNewChat 生成新的会话ID并清空消息日志。不触达后端。
func (m *Manager) StartNewChat() {
	m.mu.Lock()
	m.conversationID = uuid.NewString()
	m.messages = nil
	m.generation++
	m.mu.Unlock()
	m.notify()
}

// LoadConversation 切换到历史目录中的一个会话。
// summary.Messages 为空不是错误：它只表示需要调用方自行做后续拉取。
func (m *Manager) LoadConversation(summary api.HistorySummary) {
	m.mu.Lock()
	m.conversationID = summary.ConversationID
	m.generation++
	m.messages = nil
	for _, hm := range summary.Messages {
		m.messages = append(m.messages, Message{Role: hm.Role, Content: hm.Content, Status: StatusSettled})
	}
	m.mu.Unlock()
	m.notify()
}

// Send 执行乐观发送协议：
//
//  1. 去除首尾空白后为空则不做任何事（也不发请求）。
//  2. 立即乐观追加用户消息（Pending），保证零延迟可见。
//  3. 请求后端；期间会话被切换的话，应用结果前的代际检查会把
//     迟到的响应整体丢弃，避免跨会话消息串扰。
//  4. 成功：用户消息结算，追加携带元信息的助手消息，并刷新历史目录。
//  5. 失败：用户消息标记 Failed，追加一条合成的失败提示助手消息。
//
// 任何错误都不会向调用方抛出，会话始终保持可用，用户可以直接重发。
func (m *Manager) Send(ctx context.Context, text string) {
	m.send(ctx, text, false, nil)
}

// SendStream 与 Send 遵循同一协议，但通过流式通道发送，
// 增量内容先逐块经 onChunk 回调，终帧到达后整条助手消息入日志。
func (m *Manager) SendStream(ctx context.Context, text string, onChunk func(string)) {
	m.send(ctx, text, true, onChunk)
}

func (m *Manager) send(ctx context.Context, text string, stream bool, onChunk func(string)) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	convID := m.conversationID
	gen := m.generation
	userIdx := len(m.messages)
	m.messages = append(m.messages, Message{Role: RoleUser, Content: text, Status: StatusPending})
	m.mu.Unlock()
	m.notify()

	var resp *api.ChatResponse
	var err error
	if stream {
		resp, err = m.gateway.StreamChat(ctx, m.userID, m.companyID, convID, text, func(chunk string) {
			if onChunk != nil {
				onChunk(chunk)
			}
		})
	} else {
		resp, err = m.gateway.SendChat(ctx, m.userID, m.companyID, convID, text)
	}

	m.mu.Lock()
	if m.generation != gen {
		// 会话已被切换，迟到的响应整体作废
		m.mu.Unlock()
		log.Debugf("丢弃过期会话 %s 的响应", convID)
		return
	}
	if err != nil {
		m.messages[userIdx].Status = StatusFailed
		m.messages = append(m.messages, Message{Role: RoleAssistant, Content: failureNotice, Status: StatusSettled})
		m.mu.Unlock()
		m.notify()
		log.Warnf("消息发送失败（会话 %s）: %v", convID, err)
		return
	}
	m.messages[userIdx].Status = StatusSettled
	m.messages = append(m.messages, Message{
		Role:    RoleAssistant,
		Content: resp.Reply,
		Status:  StatusSettled,
		Meta:    &ResponseMeta{Confidence: resp.Confidence, Sources: resp.Sources, Cached: resp.Cached},
	})
	m.mu.Unlock()
	m.notify()

	// 会话可能在服务端改了标题或排序
	m.RefreshHistory(ctx)
}

// RefreshHistory 重新拉取历史目录并按更新时间降序排列。
// 历史只是便利视图，失败只记日志：即使历史拉不下来，聊天也必须可用。
func (m *Manager) RefreshHistory(ctx context.Context) {
	summaries, err := m.gateway.History(ctx, m.userID)
	if err != nil {
		log.Warnf("历史目录拉取失败（已忽略）: %v", err)
		return
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	m.mu.Lock()
	m.history = summaries
	m.mu.Unlock()
	m.notify()
}

// Feedback 对当前会话提交一条反馈。错误由网关层刻意丢弃，这里绝不抛出。
func (m *Manager) Feedback(ctx context.Context, helpful bool, reason string) {
	m.mu.Lock()
	convID := m.conversationID
	m.mu.Unlock()
	m.gateway.SendFeedback(ctx, convID, helpful, reason)
}

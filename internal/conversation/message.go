// Package conversation 维护当前活跃会话与历史目录，并实现乐观发送协议。
package conversation

// RoleUser 与 RoleAssistant 是消息的两种角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Status 是消息的结算状态。乐观追加的用户消息从 Pending 开始，
// 后端确认后变为 Settled，请求失败则标记为 Failed（不回滚内容，
// 用户看到的是"问了什么"而不是被悄悄抹掉的输入）。
type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusFailed  Status = "failed"
)

// ResponseMeta 携带助手回答的元信息，仅在助手消息上出现。
type ResponseMeta struct {
	Confidence string
	Sources    []string
	Cached     bool
}

// Message 是会话日志中的一条消息。
type Message struct {
	Role    string
	Content string
	Status  Status
	Meta    *ResponseMeta
}

// failureNotice 是发送失败时追加的合成助手消息内容。
const failureNotice = "抱歉，本次请求未能送达，请稍后重试。"

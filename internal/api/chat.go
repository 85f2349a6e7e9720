package api

import (
	"context"
	"net/http"

	"corpwise-go/pkg/log"
)

// chatRequest 对应 POST /chat 的请求体。
type chatRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

// feedbackRequest 对应 POST /feedback 的请求体。
type feedbackRequest struct {
	ConversationID string `json:"conversation_id"`
	Helpful        bool   `json:"helpful"`
	Reason         string `json:"reason,omitempty"`
}

// SendChat 发送一条聊天消息并返回助手回复。
// 租户与用户标识同时通过请求头和请求体传递，与后端的提取优先级保持一致。
func (c *Client) SendChat(ctx context.Context, userID, companyID, conversationID, question string) (*ChatResponse, error) {
	if err := requireCompanyID(companyID); err != nil {
		return nil, err
	}
	headers := map[string]string{
		"X-Company-ID": companyID,
		"X-User-ID":    userID,
	}
	var out ChatResponse
	err := c.doJSON(ctx, "发送消息", http.MethodPost, c.chatBase+"/chat", headers,
		chatRequest{UserID: userID, ConversationID: conversationID, Question: question}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// History 拉取用户的会话目录。
func (c *Client) History(ctx context.Context, userID string) ([]HistorySummary, error) {
	headers := map[string]string{"X-User-ID": userID}
	var out []HistorySummary
	err := c.doJSON(ctx, "拉取历史", http.MethodGet, c.chatBase+"/conversations/history", headers, nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SendFeedback 提交一条回答反馈。尽力而为：任何错误只记 debug 日志后丢弃，
// 绝不向外抛出，反馈不能打断聊天体验。
func (c *Client) SendFeedback(ctx context.Context, conversationID string, helpful bool, reason string) {
	err := c.doJSON(ctx, "提交反馈", http.MethodPost, c.chatBase+"/feedback", nil,
		feedbackRequest{ConversationID: conversationID, Helpful: helpful, Reason: reason}, nil)
	if err != nil {
		// 刻意丢弃
		log.Debugf("反馈提交失败（已忽略）: %v", err)
	}
}

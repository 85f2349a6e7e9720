package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// streamFrame 是 /chat/ws 上行与下行帧的统一结构。
// 下行 type 取值：chunk（增量内容）、done（终帧，携带完整回复与元信息）、error。
type streamFrame struct {
	Type       string   `json:"type"`
	Content    string   `json:"content,omitempty"`
	Reply      string   `json:"reply,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// StreamChat 通过 WebSocket 发送一条聊天消息，增量内容逐块回调 onChunk，
// 终帧到达后返回完整的 ChatResponse。与 SendChat 遵循同一错误语义。
func (c *Client) StreamChat(ctx context.Context, userID, companyID, conversationID, question string, onChunk func(string)) (*ChatResponse, error) {
	if err := requireCompanyID(companyID); err != nil {
		return nil, err
	}

	wsURL := strings.Replace(c.chatBase, "http", "ws", 1) + "/chat/ws"
	header := http.Header{}
	header.Set("X-Company-ID", companyID)
	header.Set("X-User-ID", userID)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &RequestError{Op: "流式发送", Status: resp.StatusCode, ServerMessage: readDetail(resp.Body)}
		}
		return nil, &NetworkError{Op: "流式发送", Err: err}
	}
	defer conn.Close()

	ask := chatRequest{UserID: userID, ConversationID: conversationID, Question: question}
	if err := conn.WriteJSON(ask); err != nil {
		return nil, &NetworkError{Op: "流式发送", Err: err}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, &NetworkError{Op: "流式发送", Err: err}
		}
		var frame streamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("解析流式帧失败: %w", err)
		}
		switch frame.Type {
		case "chunk":
			if onChunk != nil {
				onChunk(frame.Content)
			}
		case "done":
			return &ChatResponse{
				Reply:      frame.Reply,
				Confidence: frame.Confidence,
				Sources:    frame.Sources,
				Cached:     frame.Cached,
			}, nil
		case "error":
			return nil, &RequestError{Op: "流式发送", Status: http.StatusInternalServerError, ServerMessage: frame.Message}
		default:
			// 未知帧类型直接忽略，保持向前兼容
		}
	}
}

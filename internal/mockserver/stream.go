package mockserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"corpwise-go/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsFrame 是 /chat/ws 下行帧。
type wsFrame struct {
	Type       string   `json:"type"`
	Content    string   `json:"content,omitempty"`
	Reply      string   `json:"reply,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// handleChatStream 在 WebSocket 上处理一次流式问答：
// 读取一条 chatRequest，按词切块下发 chunk 帧，最后以 done 帧收尾。
func (s *Server) handleChatStream(c *gin.Context) {
	companyID := c.GetHeader("X-Company-ID")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing X-Company-ID header"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	var req chatRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(wsFrame{Type: "error", Message: "无效的请求负载"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		_ = conn.WriteJSON(wsFrame{Type: "error", Message: "question 不能为空"})
		return
	}

	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		userID = req.UserID
	}

	cached := s.accounts.markQuestion(companyID, req.Question)
	reply, confidence, sources := answerFor(req.Question)

	for _, word := range strings.Fields(reply) {
		if err := conn.WriteJSON(wsFrame{Type: "chunk", Content: word + " "}); err != nil {
			log.Warnf("流式下发中断: %v", err)
			return
		}
	}

	if err := s.conversations.Append(c.Request.Context(), req.ConversationID, userID, req.Question, reply); err != nil {
		log.Warnf("会话落盘失败: %v", err)
	}

	_ = conn.WriteJSON(wsFrame{
		Type:       "done",
		Reply:      reply,
		Confidence: confidence,
		Sources:    sources,
		Cached:     cached,
	})
}

package mockserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"corpwise-go/pkg/log"
)

// signupRequest 对应 /auth/signup 的请求体。
type signupRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	CompanyID string `json:"company_id" binding:"required"`
}

// loginRequest 对应 /auth/login 的请求体。
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// adminLoginRequest 对应 /auth/admin/login 的请求体。
type adminLoginRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	CompanyID string `json:"company_id" binding:"required"`
}

// adminSignupRequest 对应 /auth/admin/signup 的请求体。
type adminSignupRequest struct {
	Username         string `json:"username" binding:"required"`
	Password         string `json:"password" binding:"required"`
	CompanyID        string `json:"company_id" binding:"required"`
	SubscriptionTier string `json:"subscription_tier"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	if err := s.accounts.createUser(req.Username, req.Password, req.CompanyID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "User created successfully",
		"username":   req.Username,
		"company_id": strings.ToLower(req.CompanyID),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	user, ok := s.accounts.verifyUser(req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"username":   user.Username,
		"company_id": user.CompanyID,
		"is_admin":   false,
	})
}

func (s *Server) handleAdminSignup(c *gin.Context) {
	var req adminSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	tier := req.SubscriptionTier
	if tier == "" {
		tier = "professional"
	}
	if _, ok := s.tiers[tier]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid subscription tier: %s", tier)})
		return
	}
	admin, err := s.accounts.createAdmin(req.Username, req.Password, req.CompanyID, tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Organization registered successfully",
		"username":          admin.Username,
		"company_id":        admin.CompanyID,
		"subscription_tier": admin.SubscriptionTier,
	})
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}

	// 超管通道：口令匹配时签发带过期时间的令牌，不绑定任何租户
	if s.superPassword != "" && strings.TrimSpace(req.Password) == s.superPassword {
		token, err := s.tokens.Generate(req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "令牌签发失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":        "Super Admin Login",
			"username":       "superuser",
			"company_id":     "GLOBAL",
			"is_super_admin": true,
			"token":          token,
		})
		return
	}

	admin, ok := s.accounts.verifyAdmin(req.Username, req.Password, req.CompanyID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials or company ID"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Admin Login successful",
		"username":          admin.Username,
		"company_id":        admin.CompanyID,
		"subscription_tier": admin.SubscriptionTier,
		"is_super_admin":    false,
	})
}

// chatRequest 对应 POST /chat 的请求体。
type chatRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question" binding:"required"`
}

// answerFor 生成确定性的固定回答。真实检索是外部后端的职责，
// 这里只保证响应形状与元信息字段齐全。
func answerFor(question string) (reply, confidence string, sources []string) {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "pto") || strings.Contains(q, "假"):
		return "You get 15 days.", "high", []string{"hr/pto.pdf"}
	case strings.Contains(q, "policy") || strings.Contains(q, "政策"):
		return "Please refer to the employee handbook, section 2.", "medium", []string{"hr/handbook.pdf"}
	default:
		return fmt.Sprintf("Here is what I found about %q.", question), "low", []string{"kb/general.md"}
	}
}

func (s *Server) handleChat(c *gin.Context) {
	companyID := c.GetHeader("X-Company-ID")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing X-Company-ID header"})
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	// 用户标识优先取请求头，与生产后端的提取顺序一致
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		userID = req.UserID
	}

	cached := s.accounts.markQuestion(companyID, req.Question)
	reply, confidence, sources := answerFor(req.Question)

	if err := s.conversations.Append(c.Request.Context(), req.ConversationID, userID, req.Question, reply); err != nil {
		log.Warnf("会话落盘失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":      reply,
		"confidence": confidence,
		"sources":    sources,
		"cached":     cached,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing X-User-ID header"})
		return
	}
	records, err := s.conversations.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if records == nil {
		records = []conversationRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// feedbackRequest 对应 POST /feedback 的请求体。
type feedbackRequest struct {
	ConversationID string `json:"conversation_id"`
	Helpful        bool   `json:"helpful"`
	Reason         string `json:"reason"`
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	log.Infow("收到反馈", "conversationId", req.ConversationID, "helpful", req.Helpful, "reason", req.Reason)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

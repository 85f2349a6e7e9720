package mockserver

import (
	"time"

	"github.com/gin-gonic/gin"

	"corpwise-go/internal/config"
	"corpwise-go/pkg/log"
)

// Server 聚合模拟后端的全部状态。
type Server struct {
	accounts      *accountStore
	conversations ConversationStore
	tokens        *SuperTokenManager
	superPassword string
	tiers         map[string]tierSpec
}

// New 根据配置组装一个模拟后端。
// Redis 地址配置了才使用 Redis 会话存储，否则退回内存实现。
func New(cfg config.MockServerConfig) (*Server, error) {
	var convStore ConversationStore
	if cfg.Redis.Addr != "" {
		store, err := NewRedisConversationStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		convStore = store
		log.Infof("会话存储使用 Redis (%s)", cfg.Redis.Addr)
	} else {
		convStore = NewMemoryConversationStore()
	}

	s := &Server{
		accounts:      newAccountStore(),
		conversations: convStore,
		tokens:        NewSuperTokenManager(cfg.SuperTokenSecret, cfg.TokenExpireHours),
		superPassword: cfg.SuperPassword,
		tiers:         builtinTiers(),
	}

	for _, seed := range cfg.SeedAccounts {
		s.seedAccount(seed)
	}
	return s, nil
}

// seedAccount 预置一个账号，失败只记日志。
func (s *Server) seedAccount(seed config.SeedAccount) {
	if seed.Admin {
		tier := seed.Tier
		if tier == "" {
			tier = "professional"
		}
		if _, err := s.accounts.createAdmin(seed.Username, seed.Password, seed.CompanyID, tier); err != nil {
			log.Warnf("预置管理员 %s 失败: %v", seed.Username, err)
		}
		return
	}
	if err := s.accounts.createUser(seed.Username, seed.Password, seed.CompanyID); err != nil {
		log.Warnf("预置用户 %s 失败: %v", seed.Username, err)
	}
}

// Engine 构建 gin 路由引擎。
func (s *Server) Engine(mode string) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	auth := r.Group("/auth")
	{
		auth.POST("/signup", s.handleSignup)
		auth.POST("/login", s.handleLogin)
		auth.POST("/admin/signup", s.handleAdminSignup)
		auth.POST("/admin/login", s.handleAdminLogin)
	}

	r.POST("/chat", s.handleChat)
	r.GET("/chat/ws", s.handleChatStream)
	r.GET("/conversations/history", s.handleHistory)
	r.POST("/feedback", s.handleFeedback)

	admin := r.Group("/admin", s.requireCompany())
	{
		admin.GET("/documents", s.handleListDocuments)
		admin.POST("/documents/upload", s.handleUploadDocument)
		admin.DELETE("/documents/:docId", s.handleDeleteDocument)
	}

	keys := r.Group("/api-keys", s.requireCompany())
	{
		keys.GET("/", s.handleListKeys)
		keys.POST("/generate", s.handleGenerateKey)
		keys.DELETE("/:keyId", s.handleRevokeKey)
	}

	sub := r.Group("/subscription")
	{
		sub.GET("/tiers", s.handleTiers)
		sub.PUT("/update-tier", s.requireCompany(), s.handleUpdateTier)
	}

	super := r.Group("/super", s.requireSuperToken())
	{
		super.GET("/companies", s.handleListCompanies)
		super.GET("/statistics", s.handleStatistics)
		super.DELETE("/company/:companyId", s.handleDeleteCompany)
		super.PUT("/company/:companyId/tier", s.handleCompanyTier)
		super.PUT("/company/:companyId/status", s.handleCompanyStatus)
	}

	return r
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}

// requireCompany 校验 X-Company-ID 请求头并放入上下文。
func (s *Server) requireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetHeader("X-Company-ID")
		if companyID == "" {
			c.AbortWithStatusJSON(400, gin.H{"detail": "Missing X-Company-ID header"})
			return
		}
		c.Set("companyID", companyID)
		c.Next()
	}
}

// requireSuperToken 校验 x-super-token 请求头。
// 兼容两种令牌：签发的 JWT，以及配置的超管口令本身。
func (s *Server) requireSuperToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("x-super-token")
		if token == "" {
			c.AbortWithStatusJSON(403, gin.H{"detail": "Unauthorized"})
			return
		}
		if s.superPassword != "" && token == s.superPassword {
			c.Next()
			return
		}
		if _, err := s.tokens.Verify(token); err != nil {
			c.AbortWithStatusJSON(403, gin.H{"detail": "Unauthorized"})
			return
		}
		c.Next()
	}
}

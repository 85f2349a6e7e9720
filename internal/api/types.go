package api

import "time"

// LoginResponse 是 POST /auth/login 和 /auth/signup 的响应体。
type LoginResponse struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	CompanyID string `json:"company_id"`
}

// AdminLoginResponse 是 POST /auth/admin/login 的响应体。
// Token 是可选的：部署了令牌签发的后端返回它；否则调用方沿用提交的超级口令。
type AdminLoginResponse struct {
	Message          string `json:"message"`
	Username         string `json:"username"`
	CompanyID        string `json:"company_id"`
	SubscriptionTier string `json:"subscription_tier"`
	IsSuperAdmin     bool   `json:"is_super_admin"`
	Token            string `json:"token,omitempty"`
}

// AdminSignupResponse 是 POST /auth/admin/signup 的响应体。
type AdminSignupResponse struct {
	Message          string `json:"message"`
	Username         string `json:"username"`
	CompanyID        string `json:"company_id"`
	SubscriptionTier string `json:"subscription_tier"`
}

// ChatResponse 是 POST /chat 的响应体，携带助手回复及其元信息。
type ChatResponse struct {
	Reply      string   `json:"reply"`
	Confidence string   `json:"confidence"`
	Sources    []string `json:"sources"`
	Cached     bool     `json:"cached"`
}

// HistoryMessage 是历史目录中内联携带的单条消息。
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistorySummary 是 GET /conversations/history 返回的目录条目。
// Messages 是可选的预加载负载，为空不代表错误，只表示需要后续拉取。
type HistorySummary struct {
	ConversationID string           `json:"conversation_id"`
	Title          string           `json:"title"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Messages       []HistoryMessage `json:"messages,omitempty"`
}

// Document 是后端文档资源的透传 DTO，服务端为权威数据源。
type Document struct {
	ID         string `json:"_id"`
	Filename   string `json:"filename"`
	DocType    string `json:"doc_type"`
	UploadedBy string `json:"uploaded_by"`
	UploadedAt string `json:"uploaded_at"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
}

// APIKey 是后端 API 密钥资源的透传 DTO（脱敏后的条目）。
type APIKey struct {
	KeyID     string `json:"key_id"`
	Name      string `json:"name"`
	Prefix    string `json:"prefix"`
	CreatedAt string `json:"created_at"`
	LastUsed  string `json:"last_used,omitempty"`
	Status    string `json:"status"`
}

// GeneratedKey 是密钥生成接口的响应：RawKey 只返回这一次。
type GeneratedKey struct {
	Status  string `json:"status"`
	RawKey  string `json:"key"`
	KeyData APIKey `json:"key_data"`
}

// Tier 描述一个订阅档位的功能与限额。
type Tier struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	MaxDocuments     int      `json:"max_documents"`
	MaxQueriesPerMo  int      `json:"max_queries_per_month"`
	MaxEmployees     int      `json:"max_employees"`
	AnalyticsEnabled bool     `json:"analytics_enabled"`
	CustomBranding   bool     `json:"custom_branding"`
	PrioritySupport  bool     `json:"priority_support"`
	PriceMonthly     *float64 `json:"price_monthly"`
	PriceDisplay     string   `json:"price_display"`
}

// TierResponse 是 GET /subscription/tiers 的响应体。
type TierResponse struct {
	Tiers map[string]Tier `json:"tiers"`
}

// CompanyUsage 是超管视图下的公司用量数据。
type CompanyUsage struct {
	DocumentsCount   int `json:"documents_count"`
	QueriesThisMonth int `json:"queries_this_month"`
}

// Company 是超管公司列表的条目。
type Company struct {
	CompanyID          string       `json:"company_id"`
	Username           string       `json:"username"`
	SubscriptionTier   string       `json:"subscription_tier"`
	SubscriptionStatus string       `json:"subscription_status"`
	Usage              CompanyUsage `json:"usage"`
	CreatedAt          string       `json:"created_at"`
}

// Statistics 是超管总览统计。
type Statistics struct {
	TotalCompanies        int            `json:"total_companies"`
	ActiveCompanies       int            `json:"active_companies"`
	TotalDocuments        int            `json:"total_documents"`
	TotalQueriesThisMonth int            `json:"total_queries_this_month"`
	TierDistribution      map[string]int `json:"tier_distribution"`
}

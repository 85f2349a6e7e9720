package mockserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// documentDTO 是文档条目的响应形状。
type documentDTO struct {
	ID         string `json:"_id"`
	Filename   string `json:"filename"`
	DocType    string `json:"doc_type"`
	UploadedBy string `json:"uploaded_by"`
	UploadedAt string `json:"uploaded_at"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
}

func toDocumentDTO(d *document) documentDTO {
	return documentDTO{
		ID:         d.ID,
		Filename:   d.Filename,
		DocType:    d.DocType,
		UploadedBy: d.UploadedBy,
		UploadedAt: d.UploadedAt.Format(time.RFC3339),
		Status:     d.Status,
		ChunkCount: d.ChunkCount,
	}
}

func (s *Server) handleListDocuments(c *gin.Context) {
	companyID := c.GetString("companyID")
	docs := s.accounts.listDocuments(companyID)
	out := make([]documentDTO, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentDTO(d))
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) handleUploadDocument(c *gin.Context) {
	companyID := c.GetString("companyID")
	docType := c.DefaultQuery("doc_type", "general")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "缺少上传文件"})
		return
	}

	// 档位限额检查：超限时拒绝上传
	if admin, ok := s.accounts.admin(companyID); ok {
		if t, ok := s.tiers[admin.SubscriptionTier]; ok && t.MaxDocuments >= 0 {
			if s.accounts.documentCount(companyID) >= t.MaxDocuments {
				c.JSON(http.StatusForbidden, gin.H{"detail": "Document limit reached for current tier"})
				return
			}
		}
	}

	d := s.accounts.addDocument(companyID, file.Filename, docType, file.Size)
	c.JSON(http.StatusOK, gin.H{"document": toDocumentDTO(d)})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	companyID := c.GetString("companyID")
	if !s.accounts.deleteDocument(companyID, c.Param("docId")) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Document not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// keyDTO 是密钥条目的脱敏响应形状。
type keyDTO struct {
	KeyID     string `json:"key_id"`
	Name      string `json:"name"`
	Prefix    string `json:"prefix"`
	CreatedAt string `json:"created_at"`
	LastUsed  string `json:"last_used,omitempty"`
	Status    string `json:"status"`
}

func toKeyDTO(k *apiKey) keyDTO {
	return keyDTO{
		KeyID:     k.KeyID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
		LastUsed:  k.LastUsed,
		Status:    k.Status,
	}
}

func (s *Server) handleListKeys(c *gin.Context) {
	companyID := c.GetString("companyID")
	keys := s.accounts.listKeys(companyID)
	out := make([]keyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyDTO(k))
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "keys": out})
}

func (s *Server) handleGenerateKey(c *gin.Context) {
	companyID := c.GetString("companyID")
	name := c.DefaultQuery("name", "Default Key")
	if _, ok := s.accounts.admin(companyID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Company not found"})
		return
	}
	raw, k, err := s.accounts.generateKey(companyID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	// 明文密钥只在这里返回一次
	c.JSON(http.StatusOK, gin.H{"status": "success", "key": raw, "key_data": toKeyDTO(k)})
}

func (s *Server) handleRevokeKey(c *gin.Context) {
	companyID := c.GetString("companyID")
	if !s.accounts.revokeKey(companyID, c.Param("keyId")) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Key revoked"})
}

func (s *Server) handleTiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": s.tiers})
}

// updateTierRequest 对应 PUT /subscription/update-tier 的请求体。
type updateTierRequest struct {
	CompanyID string `json:"company_id"`
	NewTier   string `json:"new_tier" binding:"required"`
}

func (s *Server) handleUpdateTier(c *gin.Context) {
	var req updateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	if _, ok := s.tiers[req.NewTier]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid subscription tier"})
		return
	}
	companyID := c.GetString("companyID")
	if !s.accounts.setTier(companyID, req.NewTier) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Company not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Subscription updated to " + req.NewTier,
		"company_id": strings.ToLower(companyID),
		"new_tier":   req.NewTier,
	})
}

// companyDTO 是超管公司列表的条目形状。
type companyDTO struct {
	CompanyID          string       `json:"company_id"`
	Username           string       `json:"username"`
	SubscriptionTier   string       `json:"subscription_tier"`
	SubscriptionStatus string       `json:"subscription_status"`
	Usage              companyUsage `json:"usage"`
	CreatedAt          string       `json:"created_at"`
}

type companyUsage struct {
	DocumentsCount   int `json:"documents_count"`
	QueriesThisMonth int `json:"queries_this_month"`
}

func (s *Server) companyDTOOf(a adminAccount) companyDTO {
	return companyDTO{
		CompanyID:          a.CompanyID,
		Username:           a.Username,
		SubscriptionTier:   a.SubscriptionTier,
		SubscriptionStatus: a.SubscriptionStatus,
		Usage: companyUsage{
			DocumentsCount:   s.accounts.documentCount(a.CompanyID),
			QueriesThisMonth: a.QueriesThisMonth,
		},
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListCompanies(c *gin.Context) {
	admins := s.accounts.listCompanies()
	out := make([]companyDTO, 0, len(admins))
	for _, a := range admins {
		out = append(out, s.companyDTOOf(a))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleStatistics(c *gin.Context) {
	admins := s.accounts.listCompanies()
	stats := gin.H{}
	total, active, docs, queries := 0, 0, 0, 0
	dist := make(map[string]int)
	for _, a := range admins {
		total++
		if a.SubscriptionStatus == "active" {
			active++
		}
		docs += s.accounts.documentCount(a.CompanyID)
		queries += a.QueriesThisMonth
		dist[a.SubscriptionTier]++
	}
	stats["total_companies"] = total
	stats["active_companies"] = active
	stats["total_documents"] = docs
	stats["total_queries_this_month"] = queries
	stats["tier_distribution"] = dist
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleDeleteCompany(c *gin.Context) {
	s.accounts.deleteCompany(c.Param("companyId"))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleCompanyTier(c *gin.Context) {
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	if _, ok := s.tiers[req.Tier]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid subscription tier"})
		return
	}
	if !s.accounts.setTier(c.Param("companyId"), req.Tier) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Company not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleCompanyStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "无效的请求负载"})
		return
	}
	if !s.accounts.setStatus(c.Param("companyId"), req.Status) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Company not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

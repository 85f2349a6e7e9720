package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListAPIKeys 列出公司的全部 API 密钥（脱敏条目）。
func (c *Client) ListAPIKeys(ctx context.Context, companyID string) ([]APIKey, error) {
	if err := requireCompanyID(companyID); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Company-ID": companyID}
	var out struct {
		Status string   `json:"status"`
		Keys   []APIKey `json:"keys"`
	}
	err := c.doJSON(ctx, "密钥列表", http.MethodGet, c.accountBase+"/api-keys/", headers, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Keys, nil
}

// GenerateAPIKey 生成一把新密钥。明文密钥只在本次响应中出现一次，之后无法再取回。
func (c *Client) GenerateAPIKey(ctx context.Context, companyID, name string) (*GeneratedKey, error) {
	if err := requireCompanyID(companyID); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Company-ID": companyID}
	genURL := c.accountBase + "/api-keys/generate"
	if name != "" {
		genURL += "?name=" + url.QueryEscape(name)
	}
	var out GeneratedKey
	err := c.doJSON(ctx, "密钥生成", http.MethodPost, genURL, headers, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeAPIKey 吊销一把密钥。
func (c *Client) RevokeAPIKey(ctx context.Context, companyID, keyID string) error {
	if err := requireCompanyID(companyID); err != nil {
		return err
	}
	if keyID == "" {
		return &ValidationError{Field: "keyId", Reason: "不能为空"}
	}
	headers := map[string]string{"X-Company-ID": companyID}
	return c.doJSON(ctx, "密钥吊销", http.MethodDelete,
		fmt.Sprintf("%s/api-keys/%s", c.accountBase, url.PathEscape(keyID)), headers, nil, nil)
}

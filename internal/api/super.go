package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// superHeaders 构建超管请求头。令牌对客户端是不透明的，原样转发。
func superHeaders(token string) map[string]string {
	return map[string]string{"x-super-token": token}
}

// ListCompanies 列出全部注册组织及其订阅与用量信息。
func (c *Client) ListCompanies(ctx context.Context, token string) ([]Company, error) {
	if token == "" {
		return nil, &ValidationError{Field: "superToken", Reason: "不能为空"}
	}
	var out []Company
	err := c.doJSON(ctx, "公司列表", http.MethodGet, c.accountBase+"/super/companies", superHeaders(token), nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchStatistics 拉取跨租户总览统计。
func (c *Client) FetchStatistics(ctx context.Context, token string) (*Statistics, error) {
	if token == "" {
		return nil, &ValidationError{Field: "superToken", Reason: "不能为空"}
	}
	var out Statistics
	err := c.doJSON(ctx, "总览统计", http.MethodGet, c.accountBase+"/super/statistics", superHeaders(token), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCompany 硬删除一个组织及其全部数据。调用方负责事先确认。
func (c *Client) DeleteCompany(ctx context.Context, token, companyID string) error {
	if token == "" {
		return &ValidationError{Field: "superToken", Reason: "不能为空"}
	}
	if err := requireCompanyID(companyID); err != nil {
		return err
	}
	return c.doJSON(ctx, "公司删除", http.MethodDelete,
		fmt.Sprintf("%s/super/company/%s", c.accountBase, url.PathEscape(companyID)), superHeaders(token), nil, nil)
}

// UpdateCompanyTier 由超管直接调整某公司的订阅档位。
func (c *Client) UpdateCompanyTier(ctx context.Context, token, companyID, tier string) error {
	if token == "" {
		return &ValidationError{Field: "superToken", Reason: "不能为空"}
	}
	if err := requireCompanyID(companyID); err != nil {
		return err
	}
	body := map[string]string{"tier": tier}
	return c.doJSON(ctx, "公司档位调整", http.MethodPut,
		fmt.Sprintf("%s/super/company/%s/tier", c.accountBase, url.PathEscape(companyID)), superHeaders(token), body, nil)
}

// UpdateCompanyStatus 由超管调整某公司的订阅状态（active/suspended）。
func (c *Client) UpdateCompanyStatus(ctx context.Context, token, companyID, status string) error {
	if token == "" {
		return &ValidationError{Field: "superToken", Reason: "不能为空"}
	}
	if err := requireCompanyID(companyID); err != nil {
		return err
	}
	body := map[string]string{"status": status}
	return c.doJSON(ctx, "公司状态调整", http.MethodPut,
		fmt.Sprintf("%s/super/company/%s/status", c.accountBase, url.PathEscape(companyID)), superHeaders(token), body, nil)
}

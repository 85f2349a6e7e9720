package api

import (
	"context"
	"net/http"
)

// updateTierRequest 对应 PUT /subscription/update-tier 的请求体。
type updateTierRequest struct {
	CompanyID string `json:"company_id"`
	NewTier   string `json:"new_tier"`
}

// FetchTiers 拉取全部订阅档位。公开接口，注册与升级页共用。
func (c *Client) FetchTiers(ctx context.Context) (*TierResponse, error) {
	var out TierResponse
	err := c.doJSON(ctx, "档位列表", http.MethodGet, c.accountBase+"/subscription/tiers", nil, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTier 变更公司的订阅档位。
func (c *Client) UpdateTier(ctx context.Context, companyID, tierID string) error {
	if err := requireCompanyID(companyID); err != nil {
		return err
	}
	if tierID == "" {
		return &ValidationError{Field: "tierId", Reason: "不能为空"}
	}
	headers := map[string]string{"X-Company-ID": companyID}
	return c.doJSON(ctx, "档位变更", http.MethodPut, c.accountBase+"/subscription/update-tier", headers,
		updateTierRequest{CompanyID: companyID, NewTier: tierID}, nil)
}

package api

import (
	"context"
	"errors"
	"net/http"
)

// loginRequest 对应 /auth/login 与 /auth/signup 的请求体。
type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	CompanyID string `json:"company_id,omitempty"`
}

// adminSignupRequest 对应 /auth/admin/signup 的请求体。
type adminSignupRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	CompanyID        string `json:"company_id"`
	SubscriptionTier string `json:"subscription_tier"`
}

// asAuthError 将认证接口的 4xx 响应转换为 *AuthError，其余错误原样返回。
// 凭证错误绝不自动重试，网络错误保持 *NetworkError 以便调用方区分。
func asAuthError(err error) error {
	var re *RequestError
	if errors.As(err, &re) && re.Status >= 400 && re.Status < 500 {
		return &AuthError{Status: re.Status, Message: re.ServerMessage}
	}
	return err
}

// Login 调用终端用户登录接口。
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, "用户登录", http.MethodPost, c.accountBase+"/auth/login", nil,
		loginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, asAuthError(err)
	}
	return &out, nil
}

// Signup 调用终端用户注册接口。
func (c *Client) Signup(ctx context.Context, username, password, companyID string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, "用户注册", http.MethodPost, c.accountBase+"/auth/signup", nil,
		loginRequest{Username: username, Password: password, CompanyID: companyID}, &out)
	if err != nil {
		return nil, asAuthError(err)
	}
	return &out, nil
}

// AdminLogin 调用管理员登录接口。
func (c *Client) AdminLogin(ctx context.Context, username, password, companyID string) (*AdminLoginResponse, error) {
	var out AdminLoginResponse
	err := c.doJSON(ctx, "管理员登录", http.MethodPost, c.accountBase+"/auth/admin/login", nil,
		loginRequest{Username: username, Password: password, CompanyID: companyID}, &out)
	if err != nil {
		return nil, asAuthError(err)
	}
	return &out, nil
}

// AdminSignup 调用组织注册接口。
func (c *Client) AdminSignup(ctx context.Context, username, password, companyID, tier string) (*AdminSignupResponse, error) {
	if tier == "" {
		tier = "professional"
	}
	var out AdminSignupResponse
	err := c.doJSON(ctx, "组织注册", http.MethodPost, c.accountBase+"/auth/admin/signup", nil,
		adminSignupRequest{Username: username, Password: password, CompanyID: companyID, SubscriptionTier: tier}, &out)
	if err != nil {
		return nil, asAuthError(err)
	}
	return &out, nil
}

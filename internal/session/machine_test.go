package session

import (
	"context"
	"errors"
	"os"
	"testing"

	"corpwise-go/internal/api"
	"corpwise-go/internal/identity"
	"corpwise-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.InitDefault()
	os.Exit(m.Run())
}

// fakeGateway 是可编程的认证网关替身。
type fakeGateway struct {
	loginResp       *api.LoginResponse
	loginErr        error
	signupErr       error
	adminLoginResp  *api.AdminLoginResponse
	adminLoginErr   error
	adminSignupResp *api.AdminSignupResponse
	adminSignupErr  error
}

func (g *fakeGateway) Login(_ context.Context, _, _ string) (*api.LoginResponse, error) {
	return g.loginResp, g.loginErr
}

func (g *fakeGateway) Signup(_ context.Context, _, _, _ string) (*api.LoginResponse, error) {
	return g.loginResp, g.signupErr
}

func (g *fakeGateway) AdminLogin(_ context.Context, _, _, _ string) (*api.AdminLoginResponse, error) {
	return g.adminLoginResp, g.adminLoginErr
}

func (g *fakeGateway) AdminSignup(_ context.Context, _, _, _, _ string) (*api.AdminSignupResponse, error) {
	return g.adminSignupResp, g.adminSignupErr
}

func TestAuthenticateUser(t *testing.T) {
	gw := &fakeGateway{
		loginResp: &api.LoginResponse{Username: "alice", CompanyID: "Acme"},
	}
	store := identity.NewMemoryStore()
	m := NewMachine(gw, store)

	state, err := m.AuthenticateUser(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if state.Role != User {
		t.Errorf("角色应迁移为 User, got %v", state.Role)
	}
	if state.CompanyID != "acme" {
		t.Errorf("租户应统一为小写, got %q", state.CompanyID)
	}
	if !state.CanChat() || state.CanAdministrate() {
		t.Errorf("User 角色的能力不正确: %+v", state)
	}
	if store.CompanyID() != "acme" {
		t.Errorf("租户应写入身份存储, got %q", store.CompanyID())
	}
	if id, _ := store.GetOrCreateUserID(); id == "" {
		t.Error("登录后应确保用户标识存在")
	}
}

func TestAuthenticateUserFailureKeepsState(t *testing.T) {
	gw := &fakeGateway{loginErr: &api.AuthError{Status: 401, Message: "bad credentials"}}
	m := NewMachine(gw, identity.NewMemoryStore())

	state, err := m.AuthenticateUser(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatal("凭证错误应当返回 error")
	}
	if state.Role != Anonymous {
		t.Errorf("失败的认证不应发生角色迁移, got %v", state.Role)
	}
	if m.State().Role != Anonymous {
		t.Errorf("状态机应保持 Anonymous, got %v", m.State().Role)
	}
}

func TestAuthenticateAdminTenantMismatch(t *testing.T) {
	gw := &fakeGateway{
		adminLoginResp: &api.AdminLoginResponse{Username: "boss", CompanyID: "other-corp"},
	}
	store := identity.NewMemoryStore()
	m := NewMachine(gw, store)

	_, err := m.AuthenticateAdmin(context.Background(), "boss", "pw", "acme")
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("期望 ErrTenantMismatch, got %v", err)
	}
	if m.State().Role != Anonymous {
		t.Errorf("租户不一致时不应发生迁移, got %v", m.State().Role)
	}
	if store.AdminCompanyID() != "" {
		t.Errorf("租户不一致时不应持久化管理员租户, got %q", store.AdminCompanyID())
	}
}

func TestAuthenticateAdminTenantCaseInsensitive(t *testing.T) {
	gw := &fakeGateway{
		adminLoginResp: &api.AdminLoginResponse{Username: "boss", CompanyID: "acme"},
	}
	m := NewMachine(gw, identity.NewMemoryStore())

	state, err := m.AuthenticateAdmin(context.Background(), "boss", "pw", "ACME")
	if err != nil {
		t.Fatalf("大小写不同不应视为租户不一致: %v", err)
	}
	if state.Role != Admin {
		t.Errorf("角色应迁移为 Admin, got %v", state.Role)
	}
	if !state.CanAdministrate() || state.CanSuperAdministrate() {
		t.Errorf("Admin 角色的能力不正确: %+v", state)
	}
}

func TestAuthenticateSuperAdmin(t *testing.T) {
	tests := []struct {
		name      string
		respToken string
		password  string
		wantToken string
	}{
		{
			name:      "后端返回令牌时使用令牌",
			respToken: "jwt-token",
			password:  "super-pw",
			wantToken: "jwt-token",
		},
		{
			name:      "后端未返回令牌时沿用口令",
			respToken: "",
			password:  "super-pw",
			wantToken: "super-pw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{
				adminLoginResp: &api.AdminLoginResponse{
					Username:     "superuser",
					CompanyID:    "GLOBAL",
					IsSuperAdmin: true,
					Token:        tt.respToken,
				},
			}
			m := NewMachine(gw, identity.NewMemoryStore())

			// 超管不绑定租户，提交什么租户都应成功
			state, err := m.AuthenticateAdmin(context.Background(), "superuser", tt.password, "whatever")
			if err != nil {
				t.Fatalf("AuthenticateAdmin: %v", err)
			}
			if state.Role != SuperAdmin {
				t.Errorf("角色应迁移为 SuperAdmin, got %v", state.Role)
			}
			if state.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", state.Token, tt.wantToken)
			}
			if !state.CanSuperAdministrate() {
				t.Error("SuperAdmin 应当具备超管能力")
			}
		})
	}
}

func TestRegisterCompanyStaysAnonymous(t *testing.T) {
	gw := &fakeGateway{
		adminSignupResp: &api.AdminSignupResponse{CompanyID: "acme", SubscriptionTier: "professional"},
	}
	m := NewMachine(gw, identity.NewMemoryStore())

	resp, err := m.RegisterCompany(context.Background(), "boss", "pw", "acme", "professional")
	if err != nil {
		t.Fatalf("RegisterCompany: %v", err)
	}
	if resp.CompanyID != "acme" {
		t.Errorf("CompanyID = %q", resp.CompanyID)
	}
	if m.State().Role != Anonymous {
		t.Errorf("注册成功后应保持 Anonymous 直到显式登录, got %v", m.State().Role)
	}
}

// failingClearStore 包装一个正常的身份存储，但让 Clear 固定失败。
type failingClearStore struct {
	identity.Store
	clearErr error
}

func (s *failingClearStore) Clear() error { return s.clearErr }

func TestSignOutClearFailureKeepsState(t *testing.T) {
	gw := &fakeGateway{
		loginResp: &api.LoginResponse{Username: "alice", CompanyID: "acme"},
	}
	store := &failingClearStore{
		Store:    identity.NewMemoryStore(),
		clearErr: errors.New("disk full"),
	}
	m := NewMachine(gw, store)

	if _, err := m.AuthenticateUser(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if err := m.SignOut(); err == nil {
		t.Fatal("持久化清除失败时 SignOut 应返回 error")
	}
	// 持久化身份还在，会话不得假装已登出
	if m.State().Role != User {
		t.Errorf("清除失败时应保持原角色, got %v", m.State().Role)
	}
}

func TestSignOut(t *testing.T) {
	gw := &fakeGateway{
		loginResp: &api.LoginResponse{Username: "alice", CompanyID: "acme"},
	}
	store := identity.NewMemoryStore()
	m := NewMachine(gw, store)

	if _, err := m.AuthenticateUser(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if err := m.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if m.State().Role != Anonymous {
		t.Errorf("登出后应回到 Anonymous, got %v", m.State().Role)
	}
	if store.CompanyID() != "" {
		t.Errorf("登出应清空身份存储, got %q", store.CompanyID())
	}
}

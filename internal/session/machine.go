// Package session 维护当前会话的角色状态机。
//
// 状态迁移：Anonymous -> {User, Admin, SuperAdmin}，任何已认证状态都可以
// 通过显式登出回到 Anonymous。认证调用一律单发，不做自动重试：凭证错误
// 不允许被静默重试，网络错误保持状态不变、可由用户手动重试。
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"corpwise-go/internal/api"
	"corpwise-go/internal/identity"
	"corpwise-go/pkg/log"
)

// Role 表示当前会话的角色。
type Role int

const (
	Anonymous Role = iota
	User
	Admin
	SuperAdmin
)

// String 返回角色的可读名称。
func (r Role) String() string {
	switch r {
	case User:
		return "user"
	case Admin:
		return "admin"
	case SuperAdmin:
		return "super_admin"
	default:
		return "anonymous"
	}
}

// ErrTenantMismatch 是客户端侧的越权防护：管理员登录成功但返回的租户
// 与提交的不一致时触发，即使后端报告成功也按认证失败处理。
var ErrTenantMismatch = errors.New("返回的租户与提交的不一致，已拒绝建立会话")

// State 是会话状态的快照。Token 仅在 SuperAdmin 角色下非空。
type State struct {
	Role      Role
	Username  string
	CompanyID string
	Token     string
}

// CanChat 报告当前角色是否可以使用聊天。
func (s State) CanChat() bool { return s.Role == User }

// CanAdministrate 报告当前角色是否可以进入管理面板。
func (s State) CanAdministrate() bool { return s.Role == Admin || s.Role == SuperAdmin }

// CanSuperAdministrate 报告当前角色是否可以进入超管控制台。
func (s State) CanSuperAdministrate() bool { return s.Role == SuperAdmin }

// AuthGateway 抽象了状态机依赖的认证接口，便于测试替换。
type AuthGateway interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	Signup(ctx context.Context, username, password, companyID string) (*api.LoginResponse, error)
	AdminLogin(ctx context.Context, username, password, companyID string) (*api.AdminLoginResponse, error)
	AdminSignup(ctx context.Context, username, password, companyID, tier string) (*api.AdminSignupResponse, error)
}

// Machine 串行化全部角色迁移，并把身份信息写入注入的 Store。
type Machine struct {
	gateway AuthGateway
	store   identity.Store

	mu    sync.Mutex
	state State
}

// NewMachine 创建一个初始为 Anonymous 的会话状态机。
func NewMachine(gateway AuthGateway, store identity.Store) *Machine {
	return &Machine{
		gateway: gateway,
		store:   store,
	}
}

// State 返回当前状态的快照。
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AuthenticateUser 以终端用户身份登录。成功后角色迁移为 User 并持久化租户。
func (m *Machine) AuthenticateUser(ctx context.Context, username, password string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp, err := m.gateway.Login(ctx, username, password)
	if err != nil {
		// 状态保持不变：凭证错误与网络错误都不触发迁移
		return m.state, err
	}

	if err := m.store.SetCompanyID(resp.CompanyID); err != nil {
		return m.state, err
	}
	if _, err := m.store.GetOrCreateUserID(); err != nil {
		return m.state, err
	}

	m.state = State{Role: User, Username: resp.Username, CompanyID: strings.ToLower(resp.CompanyID)}
	log.Infof("用户 '%s' 登录成功，租户 %s", resp.Username, m.state.CompanyID)
	return m.state, nil
}

// RegisterUser 注册一个终端用户账号。注册成功后仍需显式登录。
func (m *Machine) RegisterUser(ctx context.Context, username, password, companyID string) error {
	_, err := m.gateway.Signup(ctx, username, password, companyID)
	return err
}

// AuthenticateAdmin 以管理员身份登录。
//
// 后端报告 is_super_admin 时走超管分支：超管账号不绑定单一租户，
// 因此跳过租户一致性检查；令牌对客户端不透明，后端未显式返回时沿用
// 提交的口令本身。普通管理员则强制大小写不敏感的租户一致性检查，
// 不一致返回 ErrTenantMismatch 且不发生迁移。
func (m *Machine) AuthenticateAdmin(ctx context.Context, username, password, companyID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp, err := m.gateway.AdminLogin(ctx, username, password, companyID)
	if err != nil {
		return m.state, err
	}

	if resp.IsSuperAdmin {
		token := resp.Token
		if token == "" {
			token = password
		}
		m.state = State{Role: SuperAdmin, Username: resp.Username, Token: token}
		log.Infof("超级管理员 '%s' 登录成功", resp.Username)
		return m.state, nil
	}

	if !strings.EqualFold(strings.TrimSpace(resp.CompanyID), strings.TrimSpace(companyID)) {
		log.Warnf("管理员登录租户不一致: 提交 %q 返回 %q", companyID, resp.CompanyID)
		return m.state, ErrTenantMismatch
	}

	if err := m.store.SetAdminCompanyID(resp.CompanyID); err != nil {
		return m.state, err
	}

	m.state = State{Role: Admin, Username: resp.Username, CompanyID: strings.ToLower(resp.CompanyID)}
	log.Infof("管理员 '%s' 登录成功，租户 %s", resp.Username, m.state.CompanyID)
	return m.state, nil
}

// RegisterCompany 注册一个新组织（管理员账号）。
// 采用"注册后需显式登录"的流程：成功后状态保持 Anonymous，
// 调用方需要再调用 AuthenticateAdmin 建立会话。
func (m *Machine) RegisterCompany(ctx context.Context, username, password, companyID, tier string) (*api.AdminSignupResponse, error) {
	resp, err := m.gateway.AdminSignup(ctx, username, password, companyID, tier)
	if err != nil {
		return nil, err
	}
	log.Infof("组织 '%s' 注册成功，等待管理员登录", resp.CompanyID)
	return resp, nil
}

// SignOut 清空持久化身份并回到 Anonymous。
// 先清持久化再迁移状态：清除失败时会话保持原角色，调用方可重试。
func (m *Machine) SignOut() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return err
	}
	prev := m.state.Role
	m.state = State{Role: Anonymous}
	log.Infof("会话已登出（此前角色: %s）", prev)
	return nil
}

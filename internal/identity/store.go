// Package identity 提供客户端本地身份信息的持久化访问。
//
// 它对应浏览器端 localStorage 中的三个独立生命周期的字符串值：
// app_user_id（终端用户标识，首次访问时生成）、app_company_id（终端用户所属租户）、
// admin_company_id（管理员会话的租户）。
package identity

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store 定义了身份信息的读写契约。
// 所有实现必须保证 GetOrCreateUserID 在 Clear 之前幂等。
type Store interface {
	// GetOrCreateUserID 读取持久化的用户ID；不存在时生成一个新的 UUID 并持久化。
	GetOrCreateUserID() (string, error)
	// CompanyID 返回终端用户的租户ID，未设置时为空串。
	CompanyID() string
	// SetCompanyID 归一化为小写后持久化。
	SetCompanyID(id string) error
	// AdminCompanyID 返回管理员会话的租户ID，未设置时为空串。
	AdminCompanyID() string
	// SetAdminCompanyID 归一化为小写后持久化。
	SetAdminCompanyID(id string) error
	// ClearAdminCompanyID 仅移除管理员租户ID（管理员登出）。
	ClearAdminCompanyID() error
	// Clear 移除全部持久化值（终端用户登出）。
	Clear() error
}

// MemoryStore 是 Store 的内存实现，供测试替换使用。
type MemoryStore struct {
	mu             sync.Mutex
	userID         string
	companyID      string
	adminCompanyID string
}

// NewMemoryStore 创建一个空的内存身份存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetOrCreateUserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		s.userID = uuid.NewString()
	}
	return s.userID, nil
}

func (s *MemoryStore) CompanyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.companyID
}

func (s *MemoryStore) SetCompanyID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companyID = strings.ToLower(strings.TrimSpace(id))
	return nil
}

func (s *MemoryStore) AdminCompanyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminCompanyID
}

func (s *MemoryStore) SetAdminCompanyID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminCompanyID = strings.ToLower(strings.TrimSpace(id))
	return nil
}

func (s *MemoryStore) ClearAdminCompanyID() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminCompanyID = ""
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.companyID = ""
	s.adminCompanyID = ""
	return nil
}

package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// fileState 与 identity.json 的磁盘结构对应。
// 键名沿用浏览器端 localStorage 的键，便于排查问题时对照。
type fileState struct {
	UserID         string `json:"app_user_id,omitempty"`
	CompanyID      string `json:"app_company_id,omitempty"`
	AdminCompanyID string `json:"admin_company_id,omitempty"`
}

// FileStore 是 Store 的文件实现，将身份信息持久化到一个 JSON 文件中。
// 每次变更重写整个文件（0600 权限），读-改-写在进程内通过互斥锁串行化。
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultPath 返回默认的身份文件路径（~/.corpwise/identity.json）。
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("获取用户主目录失败: %w", err)
	}
	return filepath.Join(home, ".corpwise", "identity.json"), nil
}

// NewFileStore 创建一个文件身份存储。path 为空时使用 DefaultPath。
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileStore{path: path}, nil
}

// load 读取磁盘状态；文件不存在视为空状态，不是错误。
func (s *FileStore) load() (fileState, error) {
	var st fileState
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("读取身份文件失败: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("解析身份文件失败: %w", err)
	}
	return st, nil
}

// save 将状态写回磁盘，必要时创建目录。
func (s *FileStore) save(st fileState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建身份目录失败: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化身份信息失败: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("写入身份文件失败: %w", err)
	}
	return nil
}

func (s *FileStore) GetOrCreateUserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return "", err
	}
	if st.UserID != "" {
		return st.UserID, nil
	}
	st.UserID = uuid.NewString()
	if err := s.save(st); err != nil {
		return "", err
	}
	return st.UserID, nil
}

func (s *FileStore) CompanyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return ""
	}
	return st.CompanyID
}

func (s *FileStore) SetCompanyID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.CompanyID = strings.ToLower(strings.TrimSpace(id))
	return s.save(st)
}

func (s *FileStore) AdminCompanyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return ""
	}
	return st.AdminCompanyID
}

func (s *FileStore) SetAdminCompanyID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.AdminCompanyID = strings.ToLower(strings.TrimSpace(id))
	return s.save(st)
}

func (s *FileStore) ClearAdminCompanyID() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.AdminCompanyID = ""
	return s.save(st)
}

// Clear 移除全部持久化身份信息。
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("移除身份文件失败: %w", err)
	}
	return nil
}

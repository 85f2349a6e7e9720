// Package mockserver 实现后端协作方契约的本地模拟，供开发与集成测试使用。
// 不含任何检索或解析逻辑：回答是确定性的固定内容，存储默认在内存中。
package mockserver

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// userAccount 是终端用户账号。
type userAccount struct {
	Username     string
	PasswordHash []byte
	CompanyID    string
}

// adminAccount 是组织管理员账号，同时承载组织的订阅信息。
type adminAccount struct {
	Username           string
	PasswordHash       []byte
	CompanyID          string
	SubscriptionTier   string
	SubscriptionStatus string
	CreatedAt          time.Time
	QueriesThisMonth   int
}

// document 是公司文档的元数据条目（内容不落盘）。
type document struct {
	ID         string
	Filename   string
	DocType    string
	UploadedBy string
	UploadedAt time.Time
	Status     string
	ChunkCount int
}

// apiKey 是签发过的 API 密钥条目，明文不保存。
type apiKey struct {
	KeyID     string
	Name      string
	Hash      []byte
	Prefix    string
	CreatedAt time.Time
	LastUsed  string
	Status    string
}

// accountStore 持有全部账号与公司作用域资源，互斥量保护。
type accountStore struct {
	mu        sync.Mutex
	users     map[string]*userAccount    // key: username
	admins    map[string]*adminAccount   // key: company_id（小写）
	documents map[string][]*document     // key: company_id
	keys      map[string][]*apiKey       // key: company_id
	questions map[string]map[string]bool // company_id -> 已问过的问题（驱动 cached 标记）
}

func newAccountStore() *accountStore {
	return &accountStore{
		users:     make(map[string]*userAccount),
		admins:    make(map[string]*adminAccount),
		documents: make(map[string][]*document),
		keys:      make(map[string][]*apiKey),
		questions: make(map[string]map[string]bool),
	}
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// createUser 注册一个终端用户；用户名重复视为错误。
func (s *accountStore) createUser(username, password, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return fmt.Errorf("用户名已存在")
	}
	h, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.users[username] = &userAccount{Username: username, PasswordHash: h, CompanyID: strings.ToLower(companyID)}
	return nil
}

// verifyUser 校验终端用户凭证。
func (s *accountStore) verifyUser(username, password string) (*userAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok || !checkPassword(u.PasswordHash, password) {
		return nil, false
	}
	return u, true
}

// createAdmin 注册一个组织；company_id 与管理员用户名都要求唯一。
func (s *accountStore) createAdmin(username, password, companyID, tier string) (adminAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cid := strings.ToLower(companyID)
	if _, ok := s.admins[cid]; ok {
		return adminAccount{}, fmt.Errorf("组织ID已存在")
	}
	for _, a := range s.admins {
		if a.Username == username {
			return adminAccount{}, fmt.Errorf("管理员用户名已存在")
		}
	}
	h, err := hashPassword(password)
	if err != nil {
		return adminAccount{}, err
	}
	a := &adminAccount{
		Username:           username,
		PasswordHash:       h,
		CompanyID:          cid,
		SubscriptionTier:   tier,
		SubscriptionStatus: "active",
		CreatedAt:          time.Now().UTC(),
	}
	s.admins[cid] = a
	return *a, nil
}

// verifyAdmin 校验管理员凭证：用户名、口令、租户三者同时匹配。
// 返回快照副本，调用方在锁外读取不会与并发写冲突。
func (s *accountStore) verifyAdmin(username, password, companyID string) (adminAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[strings.ToLower(companyID)]
	if !ok || a.Username != username || !checkPassword(a.PasswordHash, password) {
		return adminAccount{}, false
	}
	return *a, true
}

// admin 返回组织记录的快照副本。写路径走 setTier/setStatus。
func (s *accountStore) admin(companyID string) (adminAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[strings.ToLower(companyID)]
	if !ok {
		return adminAccount{}, false
	}
	return *a, true
}

// setTier 变更组织的订阅档位；组织不存在时返回 false。
func (s *accountStore) setTier(companyID, tier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[strings.ToLower(companyID)]
	if !ok {
		return false
	}
	a.SubscriptionTier = tier
	return true
}

// setStatus 变更组织的订阅状态；组织不存在时返回 false。
func (s *accountStore) setStatus(companyID, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[strings.ToLower(companyID)]
	if !ok {
		return false
	}
	a.SubscriptionStatus = status
	return true
}

// markQuestion 记录问题并报告此前是否已问过（驱动 cached 标记）。
func (s *accountStore) markQuestion(companyID, question string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cid := strings.ToLower(companyID)
	if s.questions[cid] == nil {
		s.questions[cid] = make(map[string]bool)
	}
	key := strings.ToLower(strings.TrimSpace(question))
	seen := s.questions[cid][key]
	s.questions[cid][key] = true
	if a, ok := s.admins[cid]; ok {
		a.QueriesThisMonth++
	}
	return seen
}

// addDocument 登记一份文档元数据并返回条目。
func (s *accountStore) addDocument(companyID, filename, docType string, size int64) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	cid := strings.ToLower(companyID)
	d := &document{
		ID:         uuid.NewString(),
		Filename:   filename,
		DocType:    docType,
		UploadedBy: "admin",
		UploadedAt: time.Now().UTC(),
		Status:     "indexed",
		ChunkCount: int(size/1024) + 1,
	}
	s.documents[cid] = append(s.documents[cid], d)
	return d
}

func (s *accountStore) listDocuments(companyID string) []*document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*document(nil), s.documents[strings.ToLower(companyID)]...)
}

func (s *accountStore) deleteDocument(companyID, docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cid := strings.ToLower(companyID)
	docs := s.documents[cid]
	for i, d := range docs {
		if d.ID == docID {
			s.documents[cid] = append(docs[:i], docs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *accountStore) listKeys(companyID string) []*apiKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*apiKey(nil), s.keys[strings.ToLower(companyID)]...)
}

// generateKey 签发一把新密钥，返回明文与脱敏条目。明文只出现这一次。
func (s *accountStore) generateKey(companyID, name string) (string, *apiKey, error) {
	raw := "sk_corp_" + uuid.NewString()
	h, err := hashPassword(raw)
	if err != nil {
		return "", nil, err
	}
	k := &apiKey{
		KeyID:     uuid.NewString()[:16],
		Name:      name,
		Hash:      h,
		Prefix:    raw[:12],
		CreatedAt: time.Now().UTC(),
		Status:    "active",
	}
	s.mu.Lock()
	cid := strings.ToLower(companyID)
	s.keys[cid] = append(s.keys[cid], k)
	s.mu.Unlock()
	return raw, k, nil
}

func (s *accountStore) revokeKey(companyID, keyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys[strings.ToLower(companyID)] {
		if k.KeyID == keyID {
			k.Status = "revoked"
			return true
		}
	}
	return false
}

// deleteCompany 硬删除组织及其全部公司作用域数据。
func (s *accountStore) deleteCompany(companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cid := strings.ToLower(companyID)
	delete(s.admins, cid)
	delete(s.documents, cid)
	delete(s.keys, cid)
	delete(s.questions, cid)
	for name, u := range s.users {
		if u.CompanyID == cid {
			delete(s.users, name)
		}
	}
}

// listCompanies 返回全部组织的快照副本。
func (s *accountStore) listCompanies() []adminAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]adminAccount, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, *a)
	}
	return out
}

func (s *accountStore) documentCount(companyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.documents[strings.ToLower(companyID)])
}

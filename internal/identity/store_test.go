package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreUserIDStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	first, err := store.GetOrCreateUserID()
	if err != nil {
		t.Fatalf("首次生成用户标识失败: %v", err)
	}
	if first == "" {
		t.Fatal("用户标识不应为空")
	}

	second, err := store.GetOrCreateUserID()
	if err != nil {
		t.Fatalf("二次读取用户标识失败: %v", err)
	}
	if second != first {
		t.Errorf("同一存储中用户标识应当稳定: %q != %q", second, first)
	}

	// 换一个实例读同一个文件，标识仍然不变
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("重新打开存储失败: %v", err)
	}
	third, err := reopened.GetOrCreateUserID()
	if err != nil {
		t.Fatalf("重开后读取用户标识失败: %v", err)
	}
	if third != first {
		t.Errorf("跨实例用户标识应当稳定: %q != %q", third, first)
	}
}

func TestFileStoreCompanyIDLowercased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.SetCompanyID("AcmeCorp"); err != nil {
		t.Fatalf("SetCompanyID: %v", err)
	}
	if got := store.CompanyID(); got != "acmecorp" {
		t.Errorf("租户标识应当统一为小写, got %q", got)
	}

	if err := store.SetAdminCompanyID("ACME"); err != nil {
		t.Fatalf("SetAdminCompanyID: %v", err)
	}
	if got := store.AdminCompanyID(); got != "acme" {
		t.Errorf("管理员租户标识应当统一为小写, got %q", got)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := store.GetOrCreateUserID(); err != nil {
		t.Fatalf("GetOrCreateUserID: %v", err)
	}
	if err := store.SetCompanyID("acme"); err != nil {
		t.Fatalf("SetCompanyID: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Clear 后身份文件应当被删除")
	}
	if got := store.CompanyID(); got != "" {
		t.Errorf("Clear 后租户标识应当为空, got %q", got)
	}

	// 对不存在的文件再次 Clear 不是错误
	if err := store.Clear(); err != nil {
		t.Errorf("重复 Clear 不应报错: %v", err)
	}
}

func TestMemoryStoreUserIDStable(t *testing.T) {
	store := NewMemoryStore()
	first, err := store.GetOrCreateUserID()
	if err != nil {
		t.Fatalf("GetOrCreateUserID: %v", err)
	}
	second, err := store.GetOrCreateUserID()
	if err != nil {
		t.Fatalf("GetOrCreateUserID: %v", err)
	}
	if first != second {
		t.Errorf("内存存储的用户标识应当稳定: %q != %q", first, second)
	}
}

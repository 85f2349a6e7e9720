package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// storedMessage 是落在会话存储中的单条消息。
type storedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// conversationRecord 是一个会话线程的完整记录。
type conversationRecord struct {
	ConversationID string          `json:"conversation_id"`
	UserID         string          `json:"user_id"`
	Title          string          `json:"title"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Messages       []storedMessage `json:"messages"`
}

// ConversationStore 定义会话线程的持久化接口。
type ConversationStore interface {
	// Append 将一轮问答追加到会话，必要时创建会话（标题取首问）。
	Append(ctx context.Context, conversationID, userID, question, answer string) error
	// ListByUser 返回该用户的全部会话，按 UpdatedAt 降序。
	ListByUser(ctx context.Context, userID string) ([]conversationRecord, error)
}

// memoryConversationStore 是默认的内存实现。
type memoryConversationStore struct {
	mu      sync.Mutex
	records map[string]*conversationRecord
}

// NewMemoryConversationStore 创建内存会话存储。
func NewMemoryConversationStore() ConversationStore {
	return &memoryConversationStore{records: make(map[string]*conversationRecord)}
}

// titleOf 从首问生成会话标题。
func titleOf(question string) string {
	const maxTitle = 40
	runes := []rune(question)
	if len(runes) > maxTitle {
		return string(runes[:maxTitle]) + "…"
	}
	return question
}

func (s *memoryConversationStore) Append(_ context.Context, conversationID, userID, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[conversationID]
	if !ok {
		rec = &conversationRecord{
			ConversationID: conversationID,
			UserID:         userID,
			Title:          titleOf(question),
		}
		s.records[conversationID] = rec
	}
	rec.Messages = append(rec.Messages,
		storedMessage{Role: "user", Content: question},
		storedMessage{Role: "assistant", Content: answer},
	)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryConversationStore) ListByUser(_ context.Context, userID string) ([]conversationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []conversationRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// redisConversationStore 把会话记录放进 Redis：
// conversation:{id} 存整条 JSON（7 天过期，只保留最近 20 条消息），
// user:{uid}:conversations 集合维护该用户的会话ID索引。
type redisConversationStore struct {
	client *redis.Client
}

// NewRedisConversationStore 创建 Redis 会话存储并验证连通性。
func NewRedisConversationStore(addr, password string, db int) (ConversationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return &redisConversationStore{client: client}, nil
}

const (
	conversationTTL = 7 * 24 * time.Hour
	maxStoredTurns  = 20
)

func convKey(conversationID string) string { return "conversation:" + conversationID }
func userKey(userID string) string         { return "user:" + userID + ":conversations" }

func (s *redisConversationStore) Append(ctx context.Context, conversationID, userID, question, answer string) error {
	var rec conversationRecord
	data, err := s.client.Get(ctx, convKey(conversationID)).Result()
	switch {
	case err == redis.Nil:
		rec = conversationRecord{
			ConversationID: conversationID,
			UserID:         userID,
			Title:          titleOf(question),
		}
	case err != nil:
		return fmt.Errorf("读取会话失败: %w", err)
	default:
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return fmt.Errorf("解析会话记录失败: %w", err)
		}
	}

	rec.Messages = append(rec.Messages,
		storedMessage{Role: "user", Content: question},
		storedMessage{Role: "assistant", Content: answer},
	)
	// 只保留最近 20 条
	if len(rec.Messages) > maxStoredTurns {
		rec.Messages = rec.Messages[len(rec.Messages)-maxStoredTurns:]
	}
	rec.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化会话记录失败: %w", err)
	}
	if err := s.client.Set(ctx, convKey(conversationID), payload, conversationTTL).Err(); err != nil {
		return fmt.Errorf("写入会话失败: %w", err)
	}
	if err := s.client.SAdd(ctx, userKey(userID), conversationID).Err(); err != nil {
		return fmt.Errorf("更新会话索引失败: %w", err)
	}
	return s.client.Expire(ctx, userKey(userID), conversationTTL).Err()
}

func (s *redisConversationStore) ListByUser(ctx context.Context, userID string) ([]conversationRecord, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取会话索引失败: %w", err)
	}
	var out []conversationRecord
	for _, id := range ids {
		data, err := s.client.Get(ctx, convKey(id)).Result()
		if err == redis.Nil {
			// 会话已过期，索引里的悬挂ID直接跳过
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("读取会话失败: %w", err)
		}
		var rec conversationRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

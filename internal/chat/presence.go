package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence tracks which sessions have a conversation open, per party.
type Presence interface {
	Enter(ctx context.Context, p Party, conversationID, sessionID string) error
	Leave(ctx context.Context, p Party, conversationID, sessionID string) error
	Viewing(ctx context.Context, p Party, conversationID string) (bool, error)
}

// DefaultPresenceTTL outlives a couple of websocket ping periods, so a
// session that dies without leaving drops out on its own.
const DefaultPresenceTTL = 2 * time.Minute

// RedisPresence keeps one set of session ids per (party, conversation) so
// every server instance sees the same viewers.
type RedisPresence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPresence(client *redis.Client, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &RedisPresence{client: client, ttl: ttl}
}

func presenceKey(p Party, conversationID string) string {
	return fmt.Sprintf("campus:presence:%s:%s", p, conversationID)
}

func (rp *RedisPresence) Enter(ctx context.Context, p Party, conversationID, sessionID string) error {
	key := presenceKey(p, conversationID)
	pipe := rp.client.TxPipeline()
	pipe.SAdd(ctx, key, sessionID)
	pipe.Expire(ctx, key, rp.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (rp *RedisPresence) Leave(ctx context.Context, p Party, conversationID, sessionID string) error {
	return rp.client.SRem(ctx, presenceKey(p, conversationID), sessionID).Err()
}

func (rp *RedisPresence) Viewing(ctx context.Context, p Party, conversationID string) (bool, error) {
	n, err := rp.client.SCard(ctx, presenceKey(p, conversationID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryPresence is a single-process Presence.
type MemoryPresence struct {
	mu       sync.Mutex
	sessions map[string]map[string]struct{}
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{sessions: make(map[string]map[string]struct{})}
}

func (mp *MemoryPresence) Enter(_ context.Context, p Party, conversationID, sessionID string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	key := presenceKey(p, conversationID)
	if mp.sessions[key] == nil {
		mp.sessions[key] = make(map[string]struct{})
	}
	mp.sessions[key][sessionID] = struct{}{}
	return nil
}

func (mp *MemoryPresence) Leave(_ context.Context, p Party, conversationID, sessionID string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	key := presenceKey(p, conversationID)
	delete(mp.sessions[key], sessionID)
	if len(mp.sessions[key]) == 0 {
		delete(mp.sessions, key)
	}
	return nil
}

func (mp *MemoryPresence) Viewing(_ context.Context, p Party, conversationID string) (bool, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.sessions[presenceKey(p, conversationID)]) > 0, nil
}

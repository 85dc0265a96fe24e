// Package session 实现目录页会话：持有过滤条件和分页状态，并保证过期的加载结果不会覆盖较新的状态。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MorseWayne/shoe_catalog/internal/cache"
	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

// 会话错误
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStaleResult     = errors.New("stale result: a newer request already committed")
	ErrBaseChanged     = errors.New("session state changed since it was loaded")
)

// DefaultTTL 会话默认有效期
const DefaultTTL = 30 * time.Minute

// State 会话中对外可见的状态
type State struct {
	Selection domain.FilterSelection `json:"selection"`
	Page      domain.PageState       `json:"page"`
}

// Snapshot 会话快照
type Snapshot struct {
	ID        string            `json:"id"`
	State     State             `json:"state"`
	Issued    uint64            `json:"issued"`    // 最近签发的请求令牌
	Committed uint64            `json:"committed"` // 最近提交的请求令牌
	Pending   map[uint64]Intent `json:"pending,omitempty"`
}

// Store 会话存储。Issue 和 Commit 必须是原子的。
// Issue 签发令牌并记录请求操作；Commit 的 base 是 Load 时读到的 Committed：
// token 不大于已提交令牌时返回 ErrStaleResult，已提交令牌不等于 base 时返回 ErrBaseChanged，
// 两种情况都不写入。提交成功后不晚于 token 的操作从 Pending 中移除。
// Abandon 移除加载失败的请求操作。
type Store interface {
	Create(ctx context.Context, id string, st State) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Issue(ctx context.Context, id string, in Intent) (uint64, error)
	Commit(ctx context.Context, id string, token, base uint64, st State) error
	Abandon(ctx context.Context, id string, token uint64) error
}

// redisStore 基于Redis Lua脚本的会话存储，可在多实例间共享
type redisStore struct {
	sessions *cache.SessionCache
	ttl      time.Duration
}

// NewRedisStore 创建Redis会话存储
func NewRedisStore(sessions *cache.SessionCache, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{sessions: sessions, ttl: ttl}
}

func (s *redisStore) Create(ctx context.Context, id string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	return s.sessions.Create(ctx, id, data, s.ttl)
}

func (s *redisStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	entry, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, mapCacheErr(err)
	}

	snap := &Snapshot{
		ID:        id,
		Issued:    entry.Issued,
		Committed: entry.Committed,
		Pending:   make(map[uint64]Intent, len(entry.Pending)),
	}
	if err := json.Unmarshal(entry.State, &snap.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	for token, raw := range entry.Pending {
		var in Intent
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("failed to unmarshal intent %d: %w", token, err)
		}
		snap.Pending[token] = in
	}
	return snap, nil
}

func (s *redisStore) Issue(ctx context.Context, id string, in Intent) (uint64, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal intent: %w", err)
	}
	token, err := s.sessions.Issue(ctx, id, data, s.ttl)
	if err != nil {
		return 0, mapCacheErr(err)
	}
	return token, nil
}

func (s *redisStore) Commit(ctx context.Context, id string, token, base uint64, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	return mapCacheErr(s.sessions.Commit(ctx, id, token, base, data, s.ttl))
}

func (s *redisStore) Abandon(ctx context.Context, id string, token uint64) error {
	return s.sessions.Abandon(ctx, id, token)
}

// cacheStore 基于通用缓存的会话存储，令牌的原子性由进程内互斥锁保证，仅适用于单实例
type cacheStore struct {
	mu    sync.Mutex
	cache cache.Cache
	ttl   time.Duration
}

// NewCacheStore 创建基于通用缓存的会话存储
func NewCacheStore(c cache.Cache, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &cacheStore{cache: c, ttl: ttl}
}

func (s *cacheStore) key(id string) string {
	return fmt.Sprintf(cache.SessionKeyTemplate, id)
}

func (s *cacheStore) Create(ctx context.Context, id string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Set(ctx, s.key(id), &Snapshot{ID: id, State: st}, s.ttl)
}

func (s *cacheStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, id)
}

func (s *cacheStore) Issue(ctx context.Context, id string, in Intent) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	snap.Issued++
	if snap.Pending == nil {
		snap.Pending = make(map[uint64]Intent)
	}
	snap.Pending[snap.Issued] = in
	if err := s.cache.Set(ctx, s.key(id), snap, s.ttl); err != nil {
		return 0, fmt.Errorf("failed to save session: %w", err)
	}
	return snap.Issued, nil
}

func (s *cacheStore) Commit(ctx context.Context, id string, token, base uint64, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if token <= snap.Committed {
		return ErrStaleResult
	}
	if snap.Committed != base {
		return ErrBaseChanged
	}

	snap.Committed = token
	snap.State = st
	for t := range snap.Pending {
		if t <= token {
			delete(snap.Pending, t)
		}
	}
	if err := s.cache.Set(ctx, s.key(id), snap, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *cacheStore) Abandon(ctx context.Context, id string, token uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := snap.Pending[token]; !ok {
		return nil
	}
	delete(snap.Pending, token)
	if err := s.cache.Set(ctx, s.key(id), snap, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *cacheStore) load(ctx context.Context, id string) (*Snapshot, error) {
	var snap Snapshot
	if err := s.cache.Get(ctx, s.key(id), &snap); err != nil {
		return nil, mapCacheErr(err)
	}
	return &snap, nil
}

func mapCacheErr(err error) error {
	switch {
	case err == nil:
		return nil
	case cache.IsMiss(err):
		return ErrSessionNotFound
	case errors.Is(err, cache.ErrStaleToken):
		return ErrStaleResult
	case errors.Is(err, cache.ErrBaseChanged):
		return ErrBaseChanged
	}
	return err
}

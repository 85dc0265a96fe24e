package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 会话 Key: catalog:session:{session_id}，哈希字段 state/issued/committed 以及未提交的 intent:{token}
const SessionKeyTemplate = "catalog:session:%s"

const intentFieldPrefix = "intent:"

// Lua脚本：签发请求令牌（issued 自增）并记录该请求的操作
const luaIssueToken = `
-- KEYS[1]: 会话key
-- ARGV[1]: 请求操作
-- ARGV[2]: 会话TTL（秒）

if redis.call('EXISTS', KEYS[1]) == 0 then
    return -1  -- 会话不存在或已过期
end

local token = redis.call('HINCRBY', KEYS[1], 'issued', 1)
redis.call('HSET', KEYS[1], 'intent:' .. token, ARGV[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return token
`

// Lua脚本：提交会话状态。
// 令牌不比已提交的新时返回 0；已提交令牌与读取时的 base 不同（期间有其他请求提交）时返回 2
const luaCommitState = `
-- KEYS[1]: 会话key
-- ARGV[1]: 请求令牌
-- ARGV[2]: 读取状态时的已提交令牌
-- ARGV[3]: 新状态
-- ARGV[4]: 会话TTL（秒）

if redis.call('EXISTS', KEYS[1]) == 0 then
    return -1  -- 会话不存在或已过期
end

local committed = tonumber(redis.call('HGET', KEYS[1], 'committed') or '0')
local token = tonumber(ARGV[1])
if token <= committed then
    return 0  -- 已有更新的结果
end
if committed ~= tonumber(ARGV[2]) then
    return 2  -- 状态已被其他请求修改
end

redis.call('HSET', KEYS[1], 'committed', token, 'state', ARGV[3])
for i = committed + 1, token do
    redis.call('HDEL', KEYS[1], 'intent:' .. i)
end
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[4]))
return 1
`

// SessionEntry 会话在Redis中的原始内容
type SessionEntry struct {
	State     []byte
	Issued    uint64
	Committed uint64
	Pending   map[uint64][]byte // 已签发未提交的请求操作
}

// SessionCache 基于Redis哈希和Lua脚本的会话存储，令牌签发与提交均为原子操作
type SessionCache struct {
	client redis.Cmdable
}

// NewSessionCache 创建会话缓存实例
func NewSessionCache(client redis.Cmdable) *SessionCache {
	return &SessionCache{client: client}
}

func (s *SessionCache) key(id string) string {
	return fmt.Sprintf(SessionKeyTemplate, id)
}

// Create 写入新会话
func (s *SessionCache) Create(ctx context.Context, id string, state []byte, ttl time.Duration) error {
	key := s.key(id)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "state", state, "issued", 0, "committed", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", id, err)
	}
	return nil
}

// Load 读取会话，不存在时返回 ErrCacheMiss
func (s *SessionCache) Load(ctx context.Context, id string) (*SessionEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrCacheMiss
	}

	entry := &SessionEntry{State: []byte(fields["state"]), Pending: make(map[uint64][]byte)}
	if entry.Issued, err = strconv.ParseUint(fields["issued"], 10, 64); err != nil {
		return nil, fmt.Errorf("failed to parse issued token: %w", err)
	}
	if entry.Committed, err = strconv.ParseUint(fields["committed"], 10, 64); err != nil {
		return nil, fmt.Errorf("failed to parse committed token: %w", err)
	}
	for field, value := range fields {
		raw, ok := strings.CutPrefix(field, intentFieldPrefix)
		if !ok {
			continue
		}
		token, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse intent field %q: %w", field, err)
		}
		entry.Pending[token] = []byte(value)
	}
	return entry, nil
}

// Issue 签发新的请求令牌并记录请求操作
func (s *SessionCache) Issue(ctx context.Context, id string, intent []byte, ttl time.Duration) (uint64, error) {
	token, err := s.client.Eval(ctx, luaIssueToken, []string{s.key(id)}, intent, ttlSeconds(ttl)).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to execute issue token script: %w", err)
	}
	if token < 0 {
		return 0, ErrCacheMiss
	}
	return uint64(token), nil
}

// 提交冲突
var (
	ErrStaleToken  = errors.New("stale session token")
	ErrBaseChanged = errors.New("session changed since it was read")
)

// Commit 以 base（读取时的已提交令牌）为前提提交会话状态。
// 已有更新的令牌提交时返回 ErrStaleToken，base 已变化时返回 ErrBaseChanged
func (s *SessionCache) Commit(ctx context.Context, id string, token, base uint64, state []byte, ttl time.Duration) error {
	result, err := s.client.Eval(ctx, luaCommitState, []string{s.key(id)}, token, base, state, ttlSeconds(ttl)).Int64()
	if err != nil {
		return fmt.Errorf("failed to execute commit state script: %w", err)
	}

	switch result {
	case -1:
		return ErrCacheMiss
	case 0:
		return ErrStaleToken
	case 2:
		return ErrBaseChanged
	}
	return nil
}

// Abandon 撤销未提交的请求操作，用于加载失败的请求
func (s *SessionCache) Abandon(ctx context.Context, id string, token uint64) error {
	if err := s.client.HDel(ctx, s.key(id), intentFieldPrefix+strconv.FormatUint(token, 10)).Err(); err != nil {
		return fmt.Errorf("failed to abandon intent %d of session %s: %w", token, id, err)
	}
	return nil
}

func ttlSeconds(ttl time.Duration) int {
	secs := int(ttl.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

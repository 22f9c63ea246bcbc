package activity

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/redis.v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// keyPrefix namespaces activity lists in a shared Redis.
const keyPrefix = "shelf:activity:"

// RedisLog is a Log backed by one capped Redis list per member.
type RedisLog struct {
	client *redis.Client
	limit  int
}

// NewRedisLog connects to the Redis server at addr and checks it answers.
func NewRedisLog(addr string, limit int) (*RedisLog, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisLog{client: client, limit: max(limit, 1)}, nil
}

// Record pushes e onto the member's list and trims it to the limit.
func (l *RedisLog) Record(memberID string, e Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	key := keyPrefix + memberID
	if err := l.client.LPush(key, value).Err(); err != nil {
		return fmt.Errorf("push activity: %w", err)
	}
	if err := l.client.LTrim(key, 0, int64(l.limit-1)).Err(); err != nil {
		return fmt.Errorf("trim activity: %w", err)
	}
	return nil
}

// Recent reads the member's list, newest first. Entries that do not
// decode are skipped.
func (l *RedisLog) Recent(memberID string) ([]Entry, error) {
	raw, err := l.client.LRange(keyPrefix+memberID, 0, int64(l.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear deletes the member's list.
func (l *RedisLog) Clear(memberID string) error {
	return l.client.Del(keyPrefix + memberID).Err()
}

// Close closes the Redis client.
func (l *RedisLog) Close() error {
	return l.client.Close()
}

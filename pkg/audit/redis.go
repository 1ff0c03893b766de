package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// NewRedisPool returns a lazily dialing connection pool for addr.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		MaxActive:   8,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
	}
}

// RedisSink pushes each record as JSON onto the tail of a Redis list.
type RedisSink struct {
	pool *redis.Pool
	key  string
}

func NewRedisSink(pool *redis.Pool, key string) *RedisSink {
	return &RedisSink{pool: pool, key: key}
}

func (s *RedisSink) Write(ctx context.Context, r *Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("audit: encode %s: %w", r.RequestID, err)
	}

	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("audit: redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("RPUSH", s.key, b); err != nil {
		return fmt.Errorf("audit: rpush %s: %w", s.key, err)
	}
	return nil
}

// Recent returns up to n of the newest records, oldest first. A non-positive
// n returns nothing.
func (s *RedisSink) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return []Record{}, nil
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: redis connection: %w", err)
	}
	defer conn.Close()

	values, err := redis.ByteSlices(conn.Do("LRANGE", s.key, -n, -1))
	if err != nil {
		return nil, fmt.Errorf("audit: lrange %s: %w", s.key, err)
	}
	out := make([]Record, 0, len(values))
	for _, v := range values {
		var r Record
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, fmt.Errorf("audit: decode: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisSink) Close() error { return s.pool.Close() }

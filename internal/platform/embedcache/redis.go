package embedcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

type RedisConfig struct {
	Addr   string
	Prefix string
	TTL    time.Duration
	Model  string
}

type redisCache struct {
	log    *logger.Logger
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	model  string
}

func NewRedisCache(log *logger.Logger, cfg RedisConfig) (Cache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisCache(log, rdb, cfg), nil
}

func newRedisCache(log *logger.Logger, rdb *redis.Client, cfg RedisConfig) *redisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "curator:embed:"
	}
	return &redisCache{
		log:    log.With("service", "RedisEmbedCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    cfg.TTL,
		model:  cfg.Model,
	}
}

func (c *redisCache) Get(ctx context.Context, text string) ([]float32, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+Key(c.model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	vec, err := decodeVector(raw)
	if err != nil {
		c.log.Warn("Dropping corrupt cached embedding", "bytes", len(raw), "error", err)
		return nil, ErrMiss
	}
	return vec, nil
}

func (c *redisCache) Put(ctx context.Context, text string, vec []float32) error {
	if err := c.rdb.Set(ctx, c.prefix+Key(c.model, text), encodeVector(vec), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error { return c.rdb.Close() }

// little-endian float32s, four bytes each
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

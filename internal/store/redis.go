package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const incrementRetries = 5

// RedisStore backs the Store contract with Redis. Expiry is delegated to
// Redis TTLs, so a read after expiry is a plain miss.
type RedisStore struct {
	rdb *goredis.Client
	now func() time.Time
}

// RedisConfig carries the connection settings for NewRedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection before
// returning, so a misconfigured address fails at startup instead of on the
// first request.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, now: time.Now}, nil
}

func (s *RedisStore) Put(ctx context.Context, ns, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", nsKey(ns, key), err)
	}

	created := s.now().UTC()
	envelope, err := json.Marshal(Record{
		Key:       key,
		Value:     raw,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", nsKey(ns, key), err)
	}

	if err := s.rdb.Set(ctx, nsKey(ns, key), envelope, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", nsKey(ns, key), err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ns, key string, dest any) error {
	raw, err := s.rdb.Get(ctx, nsKey(ns, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", nsKey(ns, key), err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode record %s: %w", nsKey(ns, key), err)
	}
	return rec.Decode(dest)
}

func (s *RedisStore) ScanAll(ctx context.Context, ns string) ([]Record, error) {
	return s.ScanPrefix(ctx, ns, "")
}

func (s *RedisStore) ScanPrefix(ctx context.Context, ns, prefix string) ([]Record, error) {
	keys, err := s.scanKeys(ctx, nsKey(ns, prefix)+"*")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []Record{}, nil
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget %s: %w", ns, err)
	}

	records := make([]Record, 0, len(values))
	for _, v := range values {
		// Keys can expire between SCAN and MGET.
		text, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sortNewestFirst(records)
	return records, nil
}

func (s *RedisStore) IncrementField(ctx context.Context, ns, key, field string) (int64, error) {
	full := nsKey(ns, key)
	var next int64

	// Optimistic transaction: the read-modify-write retries when another
	// client touches the key between the GET and the pipelined SET.
	increment := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, full).Bytes()
		if errors.Is(err, goredis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}

		updated, value, err := incrementJSONField(rec.Value, field)
		if err != nil {
			return err
		}
		rec.Value = updated
		next = value

		envelope, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, full, envelope, goredis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < incrementRetries; i++ {
		err := s.rdb.Watch(ctx, increment, full)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("redis increment %s.%s: %w", full, field, err)
	}
	return 0, fmt.Errorf("redis increment %s.%s: too much contention", full, field)
}

func (s *RedisStore) Delete(ctx context.Context, ns, key string) error {
	if err := s.rdb.Del(ctx, nsKey(ns, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", nsKey(ns, key), err)
	}
	return nil
}

func (s *RedisStore) DeletePrefix(ctx context.Context, ns, prefix string) error {
	keys, err := s.scanKeys(ctx, nsKey(ns, prefix)+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del prefix %s: %w", nsKey(ns, prefix), err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) scanKeys(ctx context.Context, match string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %s: %w", match, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

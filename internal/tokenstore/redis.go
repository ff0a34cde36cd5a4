package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "customtrans:tokens:"

var tracer = otel.Tracer("customtrans/tokenstore")

// RedisStore keeps each table as a JSON array under its own key.
type RedisStore struct {
	rdb *redis.Client
}

// RedisOptions selects the server.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects and pings the server.
func OpenRedis(opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func redisKey(workID string) string { return redisKeyPrefix + workID }

func (s *RedisStore) Get(ctx context.Context, workID string) ([]string, bool, error) {
	ctx, span := tracer.Start(ctx, "tokenstore.Get",
		trace.WithAttributes(attribute.String("work.id", workID)))
	defer span.End()

	val, err := s.rdb.Get(ctx, redisKey(workID)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("tokens.hit", false))
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("get tokens %s: %w", workID, err)
	}
	var tokens []string
	if err := json.Unmarshal(val, &tokens); err != nil {
		return nil, false, fmt.Errorf("decode tokens %s: %w", workID, err)
	}
	span.SetAttributes(attribute.Bool("tokens.hit", true))
	return tokens, true, nil
}

func (s *RedisStore) Put(ctx context.Context, workID string, tokens []string) error {
	ctx, span := tracer.Start(ctx, "tokenstore.Put",
		trace.WithAttributes(
			attribute.String("work.id", workID),
			attribute.Int("tokens.count", len(tokens)),
		))
	defer span.End()

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(workID), data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("put tokens %s: %w", workID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, workID string) error {
	if err := s.rdb.Del(ctx, redisKey(workID)).Err(); err != nil {
		return fmt.Errorf("delete tokens %s: %w", workID, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

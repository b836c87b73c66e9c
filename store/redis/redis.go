/*
Package redis provides a Redis-backed implementation of ledger.DocumentStore.

PURPOSE:
  Lets several ledger processes share one set of collections. Each
  collection is a single string key holding the indented JSON document:

    <prefix>:users
    <prefix>:history
    <prefix>:ranking

  No expiry is set. Reset deletes the three keys.

CONCURRENCY:
  Every command is atomic on its own key. Nothing coordinates the engine's
  read-modify-write across processes, so running more than one writer
  against the same prefix can lose updates.

USAGE:
  store, err := redis.New(ctx, "localhost:6379", "", 0, "ledger")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - store/jsonfile/jsonfile.go: Flat-file backend
*/
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/warp/points-ledger/ledger"
)

// DefaultPrefix namespaces the collection keys.
const DefaultPrefix = "ledger"

// Store implements ledger.DocumentStore on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	return NewFromOptions(ctx, &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}, prefix)
}

// NewFromOptions connects with caller-provided client options.
func NewFromOptions(ctx context.Context, opts *redis.Options, prefix string) (*Store, error) {
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Key returns the Redis key holding collection c.
func (s *Store) Key(c ledger.Collection) string {
	return s.prefix + ":" + string(c)
}

func (s *Store) Load(ctx context.Context, c ledger.Collection) ([]byte, error) {
	data, err := s.client.Get(ctx, s.Key(c)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c, err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, c ledger.Collection, document []byte) error {
	if err := s.client.Set(ctx, s.Key(c), document, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", c, err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	keys := make([]string, 0, len(ledger.AllCollections))
	for _, c := range ledger.AllCollections {
		keys = append(keys, s.Key(c))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset collections: %w", err)
	}
	return nil
}

/*
Package redis provides the Redis-backed ledger.Store.

PURPOSE:
  Production store. One Redis string per ledger key; the ledger's own
  locking and write-ahead intents supply atomicity, so this layer is a
  thin client: GET, SET, DEL, and a SCAN for intent recovery.

CONNECTION:
  The client retries transient failures itself (MaxRetries) and bounds
  every call with read/write timeouts; anything that still fails comes
  back to the ledger as a StorageError.

USAGE:
  store, err := redis.New(redis.Config{Addr: "localhost:6379"})
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/credit-ledger/ledger"
)

// Config holds connection settings. Zero values fall back to sane
// local-development defaults.
type Config struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	client *goredis.Client
}

// New connects and pings. A store that can't answer a ping at startup
// is reported immediately rather than on the first request.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, &ledger.StorageError{Op: "ping", Key: cfg.Addr, Err: err}
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ledger.StorageError{Op: "get", Key: key, Err: err}
	}
	return raw, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return &ledger.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return &ledger.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Keys scans for the prefix. Only called during startup recovery, so
// the full iteration cost is acceptable.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, &ledger.StorageError{Op: "keys", Key: prefix, Err: err}
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

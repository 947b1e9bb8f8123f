package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Snapshot is the persisted cache payload: one record set per calendar day.
type Snapshot struct {
	Timestamp string                   `json:"timestamp"`
	Date      string                   `json:"date"`
	Data      map[string]MetricsRecord `json:"data"`
}

// Store caches fundamentals snapshots keyed by calendar date. Freshness is
// binary: a snapshot for the day either exists or it does not; there is no
// finer TTL.
type Store interface {
	Load(date time.Time) (map[string]MetricsRecord, bool)
	Save(data map[string]MetricsRecord, date time.Time) error
	IsFresh(policy string, date time.Time) bool
}

const cacheDateLayout = "20060102"

// FileStore keeps one JSON file per day under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "cache"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(date time.Time) string {
	return filepath.Join(s.dir, "fundamentals_"+date.Format(cacheDateLayout)+".json")
}

func (s *FileStore) Load(date time.Time) (map[string]MetricsRecord, bool) {
	raw, err := os.ReadFile(s.path(date))
	if err != nil {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt snapshot reads as absent; the next save replaces it.
		log.Warn().Err(err).Str("path", s.path(date)).Msg("discarding corrupt fundamentals cache")
		return nil, false
	}
	if snap.Data == nil {
		return nil, false
	}
	return snap.Data, true
}

func (s *FileStore) Save(data map[string]MetricsRecord, date time.Time) error {
	snap := Snapshot{
		Timestamp: time.Now().Format(time.RFC3339),
		Date:      date.Format("2006-01-02"),
		Data:      data,
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fundamentals snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(date), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write fundamentals snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) IsFresh(policy string, date time.Time) bool {
	if policy != "daily" {
		return false
	}
	_, err := os.Stat(s.path(date))
	return err == nil
}

// Prune removes snapshot files older than keepDays.
func (s *FileStore) Prune(keepDays int) {
	cutoff := time.Now().AddDate(0, 0, -keepDays)
	matches, err := filepath.Glob(filepath.Join(s.dir, "fundamentals_*.json"))
	if err != nil {
		return
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			log.Debug().Str("path", path).Msg("pruned fundamentals snapshot")
		}
	}
}

// RedisStore keeps one key per day. Keys expire on their own after two days
// so the store never needs pruning.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		timeout: 500 * time.Millisecond,
	}
}

func (s *RedisStore) key(date time.Time) string {
	return "fundamentals:" + date.Format(cacheDateLayout)
}

func (s *RedisStore) Load(date time.Time) (map[string]MetricsRecord, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key(date)).Bytes()
	if err != nil {
		return nil, false
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Data == nil {
		return nil, false
	}
	return snap.Data, true
}

func (s *RedisStore) Save(data map[string]MetricsRecord, date time.Time) error {
	snap := Snapshot{
		Timestamp: time.Now().Format(time.RFC3339),
		Date:      date.Format("2006-01-02"),
		Data:      data,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal fundamentals snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(date), raw, 48*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to write fundamentals snapshot to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) IsFresh(policy string, date time.Time) bool {
	if policy != "daily" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.client.Exists(ctx, s.key(date)).Result()
	return err == nil && n > 0
}

// NewStore picks the Redis backend when an address is configured and the
// file backend otherwise.
func NewStore(dir, redisAddr string) (Store, error) {
	if redisAddr != "" {
		return NewRedisStore(redisAddr), nil
	}
	return NewFileStore(dir)
}

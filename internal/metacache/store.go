// Package metacache caches service metadata as JSONL files, one object
// per line, and provides order-preserving batch lookups backed by the
// cache-then-network pattern.
package metacache

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// CacheDirName is the folder holding every JSONL cache file.
const CacheDirName = "cacheJSONs"

// Store is an append-only JSONL cache of T rows. Key extracts the lookup
// key from a row. Concurrent writers are tolerated: the file is re-read
// right before appending so a row another writer landed first is not
// duplicated.
type Store[T any] struct {
	Path string
	Key  func(T) string

	mu sync.Mutex
}

// NewStore creates a store at dir/name.jsonl.
func NewStore[T any](dir, name string, key func(T) string) *Store[T] {
	return &Store[T]{Path: filepath.Join(dir, name+".jsonl"), Key: key}
}

// readAll parses every line of the cache file. Blank and malformed lines
// are skipped; a missing file reads as empty.
func (s *Store[T]) readAll() []T {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var rows []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			log.Debug().Str("op", "metacache/store").Msgf("skipping malformed line %d of %s", lineNo, s.Path)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Lookup returns the first cached row with the given key.
func (s *Store[T]) Lookup(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(key)
}

func (s *Store[T]) lookupLocked(key string) (T, bool) {
	for _, row := range s.readAll() {
		if s.Key(row) == key {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Append adds a row unless a row with the same key already exists. The
// existence check runs against a fresh read of the file.
func (s *Store[T]) Append(row T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookupLocked(s.Key(row)); ok {
		return nil
	}
	return s.writeLocked(row)
}

// appendAlways writes a row without the duplicate-key check, for caches
// that dedupe on read instead.
func (s *Store[T]) appendAlways(row T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(row)
}

func (s *Store[T]) writeLocked(row T) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode cache row: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append cache row: %w", err)
	}
	return nil
}

// GetOrFetch serves key from the cache, calling fetch and caching the
// result on a miss.
func (s *Store[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if row, ok := s.Lookup(key); ok {
		log.Debug().Str("op", "metacache/store").Msgf("cache hit for %s", key)
		return row, nil
	}
	row, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.Append(row); err != nil {
		log.Warn().Str("op", "metacache/store").Err(err).Msgf("failed to cache %s", key)
	}
	return row, nil
}

// Package history keeps the list of printed labels in a single key of a KV
// backend. Every change is a read-modify-write through KV.Update, so the
// server and etiketctl can share one backend without losing each other's
// writes.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"etiket/internal/core"
)

// Store is the history Repository backed by a single key of a KV backend.
// entries caches the list as of the last read or write.
type Store struct {
	mu      sync.Mutex
	kv      KV
	key     string
	entries []core.HistoryEntry
	logger  *slog.Logger
}

var _ Repository = (*Store)(nil)

// Open reads the persisted list. Missing or malformed data yields an empty
// history and a warning; Open never fails because of the stored content.
func Open(ctx context.Context, kv KV, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, key: key, logger: logger}
	s.entries, _ = s.read(ctx)
	return s
}

// read fetches the list from the backend. ok is false only when the backend
// itself failed.
func (s *Store) read(ctx context.Context) (entries []core.HistoryEntry, ok bool) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Label history could not be read", "key", s.key, "error", err)
		return nil, false
	}
	return s.decode(ctx, raw, found), true
}

func (s *Store) decode(ctx context.Context, raw []byte, found bool) []core.HistoryEntry {
	if !found || len(raw) == 0 {
		return nil
	}
	var entries []core.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.WarnContext(ctx, "Label history is malformed, treating it as empty", "key", s.key, "error", err, "bytes", len(raw))
		return nil
	}
	return entries
}

// Reload replaces the cached list with what the backend currently holds.
// A failed read keeps the cache.
func (s *Store) Reload(ctx context.Context) {
	entries, ok := s.read(ctx)
	if !ok {
		return
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// Load re-reads the backend and returns a copy of the entries, newest
// first. When the backend cannot be read the last known list is returned.
func (s *Store) Load(ctx context.Context) []core.HistoryEntry {
	s.Reload(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.HistoryEntry(nil), s.entries...)
}

// Len returns the number of entries as of the last read or write.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// AppendAndSave puts e in front of the list the backend holds now and writes
// the result back in one update. When the write fails the entry is still
// kept in the cached list.
func (s *Store) AppendAndSave(ctx context.Context, e core.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var saved []core.HistoryEntry
	err := s.kv.Update(ctx, s.key, func(old []byte, found bool) ([]byte, error) {
		saved = prepend(e, s.decode(ctx, old, found))
		raw, err := json.Marshal(saved)
		if err != nil {
			return nil, fmt.Errorf("marshal label history: %w", err)
		}
		return raw, nil
	})
	if err != nil {
		s.entries = prepend(e, s.entries)
		return fmt.Errorf("save label history: %w", err)
	}
	s.entries = saved

	s.logger.DebugContext(ctx, "Label history saved", "key", s.key, "entries", len(saved), "label_id", e.LabelIdentifier)
	return nil
}

// Clear removes the persisted key and returns how many entries it held.
func (s *Store) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := s.kv.Update(ctx, s.key, func(old []byte, found bool) ([]byte, error) {
		removed = len(s.decode(ctx, old, found))
		return nil, nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear label history: %w", err)
	}
	s.entries = nil
	s.logger.InfoContext(ctx, "Label history cleared", "key", s.key, "removed", removed)
	return removed, nil
}

func prepend(e core.HistoryEntry, rest []core.HistoryEntry) []core.HistoryEntry {
	next := make([]core.HistoryEntry, 0, len(rest)+1)
	next = append(next, e)
	return append(next, rest...)
}

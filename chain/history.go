package chain

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Cache is the storage primitive behind the history store. The memory
// implementation below is the default; a host can bring its own backend.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Items(ctx context.Context) (map[string]S, error)
}

type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string]S{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	return val, ok, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Items(ctx context.Context) (map[string]S, error) {
	m.mu.RLock()
	out := make(map[string]S, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	m.mu.RUnlock()
	return out, nil
}

type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepLastN keeps the last N messages. N <= 0 disables trimming.
type KeepLastN struct {
	N int
}

func (t KeepLastN) Trim(history []*schema.Message) []*schema.Message {
	if t.N <= 0 || len(history) <= t.N {
		return history
	}
	return history[len(history)-t.N:]
}

// HistoryStore keeps one message history per goal label.
type HistoryStore struct {
	cache   Cache[[]*schema.Message]
	trimmer Trimmer
}

func NewHistoryStore(cache Cache[[]*schema.Message], trimmer Trimmer) *HistoryStore {
	return &HistoryStore{cache: cache, trimmer: trimmer}
}

func NewMemoryHistoryStore(trimmer Trimmer) *HistoryStore {
	return NewHistoryStore(NewMemoryCache[[]*schema.Message](), trimmer)
}

func (s *HistoryStore) Load(ctx context.Context, label string) ([]*schema.Message, error) {
	hist, ok, err := s.cache.Get(ctx, label)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return hist, nil
}

// Append loads the goal's history, appends msgs with de-duplication of
// consecutive identical turns, trims, saves, and returns the saved history.
func (s *HistoryStore) Append(ctx context.Context, label string, msgs ...*schema.Message) ([]*schema.Message, error) {
	hist, err := s.Load(ctx, label)
	if err != nil {
		return nil, err
	}
	hist = appendHistory(hist, msgs...)
	if s.trimmer != nil {
		hist = s.trimmer.Trim(hist)
	}
	if err := s.cache.Set(ctx, label, hist); err != nil {
		return nil, err
	}
	return hist, nil
}

func (s *HistoryStore) Clear(ctx context.Context, label string) error {
	return s.cache.Del(ctx, label)
}

// Snapshot copies every goal's history, for turn rollback and persistence.
func (s *HistoryStore) Snapshot(ctx context.Context) (map[string][]*schema.Message, error) {
	items, err := s.cache.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*schema.Message, len(items))
	for label, hist := range items {
		copied := make([]*schema.Message, len(hist))
		copy(copied, hist)
		out[label] = copied
	}
	return out, nil
}

// Restore replaces all histories with the given snapshot.
func (s *HistoryStore) Restore(ctx context.Context, histories map[string][]*schema.Message) error {
	items, err := s.cache.Items(ctx)
	if err != nil {
		return err
	}
	for label := range items {
		if err := s.cache.Del(ctx, label); err != nil {
			return err
		}
	}
	for label, hist := range histories {
		copied := make([]*schema.Message, len(hist))
		copy(copied, hist)
		if err := s.cache.Set(ctx, label, copied); err != nil {
			return err
		}
	}
	return nil
}

func appendHistory(history []*schema.Message, msgs ...*schema.Message) []*schema.Message {
	out := history
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last != nil && last.Role == msg.Role && last.Content == msg.Content {
				continue
			}
		}
		out = append(out, msg)
	}
	return out
}

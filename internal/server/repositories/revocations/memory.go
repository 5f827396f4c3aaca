package revocations

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type memoryRecord struct {
	token     string
	expiresAt time.Time
}

// MemoryRepository is an in-process Repository for single-instance
// deployments and tests. Records expire lazily against now.
type MemoryRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]memoryRecord
	index   map[models.UserID]map[string]struct{}
}

func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		now:     now,
		records: make(map[string]memoryRecord),
		index:   make(map[models.UserID]map[string]struct{}),
	}
}

func (m *MemoryRepository) Put(ctx context.Context, subject models.UserID, tokenID, token string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return unavailable("put", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[recordKey(subject, tokenID)] = memoryRecord{token: token, expiresAt: m.now().Add(ttl)}
	ids, ok := m.index[subject]
	if !ok {
		ids = make(map[string]struct{})
		m.index[subject] = ids
	}
	ids[tokenID] = struct{}{}
	return nil
}

func (m *MemoryRepository) Exists(ctx context.Context, subject models.UserID, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("exists", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.liveLocked(recordKey(subject, tokenID)), nil
}

func (m *MemoryRepository) Remove(ctx context.Context, subject models.UserID, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("remove", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(subject, tokenID)
	removed := m.liveLocked(key)
	delete(m.records, key)
	m.unindexLocked(subject, tokenID)
	return removed, nil
}

func (m *MemoryRepository) Discard(ctx context.Context, subject models.UserID, tokenID string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("discard", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unindexLocked(subject, tokenID)
	return nil
}

func (m *MemoryRepository) RemoveAll(ctx context.Context, subject models.UserID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("remove all", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id := range m.index[subject] {
		key := recordKey(subject, id)
		if m.liveLocked(key) {
			removed++
		}
		delete(m.records, key)
	}
	delete(m.index, subject)
	return removed, nil
}

// Len returns the number of live records.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.records {
		if m.liveLocked(key) {
			n++
		}
	}
	return n
}

// Indexed returns whether tokenID is present in subject's index.
func (m *MemoryRepository) Indexed(subject models.UserID, tokenID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.index[subject][tokenID]
	return ok
}

// liveLocked reports whether key holds an unexpired record, dropping it if expired.
func (m *MemoryRepository) liveLocked(key string) bool {
	rec, ok := m.records[key]
	if !ok {
		return false
	}
	if !m.now().Before(rec.expiresAt) {
		delete(m.records, key)
		return false
	}
	return true
}

func (m *MemoryRepository) unindexLocked(subject models.UserID, tokenID string) {
	ids, ok := m.index[subject]
	if !ok {
		return
	}
	delete(ids, tokenID)
	if len(ids) == 0 {
		delete(m.index, subject)
	}
}

package repository

import (
	"context"
	"sync"
	"time"

	"tourbooking/internal/models"
)

type memoryEntry struct {
	draft     models.BookingDraft
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryDraftRepository keeps drafts in process memory with the same TTL
// semantics as the Redis repository.
type MemoryDraftRepository struct {
	mu         sync.Mutex
	drafts     map[string]memoryEntry
	rateLimits map[string]rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryDraftRepository(ttl time.Duration) *MemoryDraftRepository {
	return &MemoryDraftRepository{
		drafts:     make(map[string]memoryEntry),
		rateLimits: make(map[string]rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryDraftRepository) GetDraft(_ context.Context, id string) (*models.BookingDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if r.expired(entry.expiresAt) {
		delete(r.drafts, id)
		return nil, ErrDraftNotFound
	}
	return cloneDraft(&entry.draft), nil
}

func (r *MemoryDraftRepository) SaveDraft(_ context.Context, draft *models.BookingDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryEntry{draft: *cloneDraft(draft)}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.drafts[draft.ID] = entry
	return nil
}

func (r *MemoryDraftRepository) DeleteDraft(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	return nil
}

func (r *MemoryDraftRepository) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = rateLimitEntry{expiresAt: now.Add(window)}
	}
	entry.count++
	r.rateLimits[key] = entry
	return entry.count <= limit, nil
}

func (r *MemoryDraftRepository) expired(at time.Time) bool {
	return !at.IsZero() && !r.now().Before(at)
}

func cloneDraft(d *models.BookingDraft) *models.BookingDraft {
	c := *d
	c.Participants = append([]models.Participant(nil), d.Participants...)
	return &c
}

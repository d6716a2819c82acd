package conversations

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Filter narrows a conversation listing. All set filters compose as a
// logical AND. Limit <= 0 selects the default page size.
type Filter struct {
	PageSection   string
	InterestLevel string
	HasEmail      *bool
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

// DefaultLimit is the page size used when a filter does not set one.
const DefaultLimit = 50

// Repository provides read-mostly access to conversation records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	List(ctx context.Context, f Filter) ([]*Record, error)
	GetByID(ctx context.Context, conversationID string) (*Record, error)
	Summarize(ctx context.Context, from, to *time.Time) (*Summary, error)
}

// InMemoryRepository keeps records in a map. Used in tests and local
// development without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*Record)}
}

// Create stores a record keyed by its conversation ID.
func (r *InMemoryRepository) Create(_ context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.records[cp.ConversationID] = &cp
	r.mu.Unlock()
	return nil
}

// matches applies the AND-composed filter to one record.
func matches(rec *Record, f Filter) bool {
	if f.PageSection != "" && rec.PageSection != f.PageSection {
		return false
	}
	if f.InterestLevel != "" && rec.InterestLevel != f.InterestLevel {
		return false
	}
	if f.HasEmail != nil && rec.HasEmail() != *f.HasEmail {
		return false
	}
	if f.DateFrom != nil && rec.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && !rec.CreatedAt.Before(*f.DateTo) {
		return false
	}
	return true
}

// List returns matching records sorted by created_at descending.
func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		if matches(rec, f) {
			cp := *rec
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ConversationID < matched[j].ConversationID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*Record{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// GetByID looks up a record by its natural key.
func (r *InMemoryRepository) GetByID(_ context.Context, conversationID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[strings.TrimSpace(conversationID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Summarize aggregates all records in the optional date range.
func (r *InMemoryRepository) Summarize(_ context.Context, from, to *time.Time) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var in []*Record
	f := Filter{DateFrom: from, DateTo: to}
	for _, rec := range r.records {
		if matches(rec, f) {
			in = append(in, rec)
		}
	}
	return ComputeSummary(in), nil
}

var _ Repository = (*InMemoryRepository)(nil)

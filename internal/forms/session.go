package forms

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/solostudio/funnel-api/internal/notify"
)

// ErrSessionNotFound is returned when a form session is absent or expired.
var ErrSessionNotFound = errors.New("forms: session not found")

// Session is the persisted shape of one form engine between requests.
// Exactly one draft exists per session; the store is the single owner.
type Session struct {
	ID        string            `json:"id"`
	FormType  notify.FormType   `json:"form_type"`
	Fields    map[string]string `json:"fields"`
	Step      int               `json:"step"`
	State     State             `json:"state"`
	Error     string            `json:"error,omitempty"`
	ResetAt   time.Time         `json:"reset_at,omitzero"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession opens a fresh session for a form type.
func NewSession(formType notify.FormType) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		FormType:  formType,
		Fields:    make(map[string]string),
		Step:      1,
		State:     StateEditing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CaptureEngine writes the engine's state back into the session.
func (s *Session) CaptureEngine(e *Engine) {
	s.Fields = e.Draft().Fields()
	s.Step = e.Step()
	s.State = e.State()
	s.Error = e.ErrorMessage()
	s.ResetAt = e.ResetAt()
	s.UpdatedAt = time.Now().UTC()
}

// SessionStore persists form sessions for the duration of one visit.
type SessionStore interface {
	Save(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// InMemorySessionStore keeps sessions in a map. Used in tests and when
// no Redis address is configured.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemorySessionStore creates an empty in-memory store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*Session)}
}

// Save stores a copy of the session.
func (s *InMemorySessionStore) Save(_ context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("forms: session id required")
	}
	cp := *sess
	cp.Fields = make(map[string]string, len(sess.Fields))
	for k, v := range sess.Fields {
		cp.Fields[k] = v
	}
	s.mu.Lock()
	s.sessions[sess.ID] = &cp
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the stored session.
func (s *InMemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *sess
	cp.Fields = make(map[string]string, len(sess.Fields))
	for k, v := range sess.Fields {
		cp.Fields[k] = v
	}
	return &cp, nil
}

// Delete removes the session if present.
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

var _ SessionStore = (*InMemorySessionStore)(nil)

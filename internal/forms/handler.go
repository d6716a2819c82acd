package forms

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/solostudio/funnel-api/internal/notify"
	"github.com/solostudio/funnel-api/internal/observability/metrics"
	"github.com/solostudio/funnel-api/pkg/logging"
)

// Handler exposes form sessions over HTTP. Each request loads the
// session, rebuilds its engine, applies one operation and stores the
// result, so the engine itself never crosses goroutines.
type Handler struct {
	store      SessionStore
	dispatcher Sender
	resetDelay time.Duration
	metrics    *metrics.FunnelMetrics
	logger     *logging.Logger
}

// NewHandler creates a forms handler.
func NewHandler(store SessionStore, dispatcher Sender, resetDelay time.Duration, m *metrics.FunnelMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		resetDelay: resetDelay,
		metrics:    m,
		logger:     logger,
	}
}

// Routes mounts the form session endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.CloseSession)
		r.Post("/fields", h.UpdateFields)
		r.Post("/advance", h.Advance)
		r.Post("/retreat", h.Retreat)
		r.Post("/submit", h.Submit)
	})
	return r
}

// SessionResponse is the session view returned by every endpoint.
type SessionResponse struct {
	SessionID  string            `json:"session_id"`
	FormType   notify.FormType   `json:"form_type"`
	Step       int               `json:"step"`
	StepCount  int               `json:"step_count"`
	State      State             `json:"state"`
	Error      string            `json:"error,omitempty"`
	CanAdvance bool              `json:"can_advance"`
	CanSubmit  bool              `json:"can_submit"`
	Fields     map[string]string `json:"fields"`
}

// CreateSessionRequest opens a session for one of the funnel forms.
type CreateSessionRequest struct {
	FormType notify.FormType `json:"form_type"`
}

// CreateSession handles POST /forms/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	def, ok := Lookup(req.FormType)
	if !ok {
		http.Error(w, "unknown form_type", http.StatusBadRequest)
		return
	}

	sess := NewSession(def.Type)
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save form session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("form session opened", "session_id", sess.ID, "form_type", sess.FormType)
	h.respond(w, http.StatusCreated, sess, h.engineFor(def, sess))
}

// GetSession handles GET /forms/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(e *Engine, sess *Session) int {
		return http.StatusOK
	})
}

// CloseSession handles DELETE /forms/sessions/{sessionID}. The draft is
// discarded without being persisted anywhere else.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.store.Delete(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to delete form session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to close session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateFieldsRequest merges fields into the draft. Keys may be dotted
// paths for nested records (payment_details.bank_details.account_number).
type UpdateFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// UpdateFields handles POST /forms/sessions/{sessionID}/fields.
func (h *Handler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var req UpdateFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.withSession(w, r, func(e *Engine, sess *Session) int {
		for k, v := range req.Fields {
			e.UpdateField(k, v)
		}
		return http.StatusOK
	})
}

// Advance handles POST /forms/sessions/{sessionID}/advance.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(e *Engine, sess *Session) int {
		e.Advance()
		return http.StatusOK
	})
}

// Retreat handles POST /forms/sessions/{sessionID}/retreat.
func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(e *Engine, sess *Session) int {
		e.Retreat()
		return http.StatusOK
	})
}

// Submit handles POST /forms/sessions/{sessionID}/submit. The outcome
// is carried in the session state rather than the HTTP status: a failed
// dispatch leaves the draft intact, in the failed state, for retry.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(e *Engine, sess *Session) int {
		if err := e.Submit(r.Context()); err != nil {
			h.metrics.ObserveSubmission(string(sess.FormType), "failed")
		} else if e.State() == StateSucceeded {
			h.metrics.ObserveSubmission(string(sess.FormType), "succeeded")
		}
		return http.StatusOK
	})
}

// withSession loads the session, rebuilds its engine, applies the
// operation and persists the engine state back.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, op func(*Engine, *Session) int) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load form session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	def, ok := Lookup(sess.FormType)
	if !ok {
		http.Error(w, "unknown form_type", http.StatusBadRequest)
		return
	}

	engine := h.engineFor(def, sess)
	engine.Tick(time.Now())
	status := op(engine, sess)

	sess.CaptureEngine(engine)
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("failed to save form session", "error", err, "session_id", sessionID)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	h.respond(w, status, sess, engine)
}

func (h *Handler) engineFor(def Definition, sess *Session) *Engine {
	engine := NewEngine(def, h.dispatcher, h.resetDelay, h.logger)
	engine.Restore(sess.Fields, sess.Step, sess.State, sess.Error, sess.ResetAt)
	return engine
}

func (h *Handler) respond(w http.ResponseWriter, status int, sess *Session, engine *Engine) {
	resp := SessionResponse{
		SessionID:  sess.ID,
		FormType:   sess.FormType,
		Step:       engine.Step(),
		StepCount:  engine.Definition().StepCount(),
		State:      engine.State(),
		Error:      engine.ErrorMessage(),
		CanAdvance: engine.CanAdvance(),
		CanSubmit:  engine.CanSubmit(),
		Fields:     engine.Draft().Fields(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

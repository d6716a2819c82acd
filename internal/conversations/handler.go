package conversations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solostudio/funnel-api/pkg/logging"
)

// Handler exposes the admin query API over a conversation repository.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates the conversations admin handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger.Component("conversations")}
}

// Routes mounts the admin endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/summary", h.GetSummary)
	r.Get("/export", h.ExportCSV)
	r.Get("/{conversationID}", h.Get)
	return r
}

// ListResponse is the paginated list payload.
type ListResponse struct {
	Conversations []*Record `json:"conversations"`
	Limit         int       `json:"limit"`
	Offset        int       `json:"offset"`
}

// List returns conversations matching the query filters.
// GET /admin/conversations?page_section=&interest_level=&has_email=&date_from=&date_to=&limit=&offset=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list conversations failed", "error", err)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{
		Conversations: records,
		Limit:         limit,
		Offset:        filter.Offset,
	})
}

// Get returns one conversation with its full transcript.
// GET /admin/conversations/{conversationID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	rec, err := h.repo.GetByID(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get conversation failed", "conversation_id", conversationID, "error", err)
		http.Error(w, "failed to get conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// GetSummary returns aggregate funnel analytics.
// GET /admin/conversations/summary?date_from=&date_to=
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.repo.Summarize(r.Context(), from, to)
	if err != nil {
		h.logger.Error("summarize conversations failed", "error", err)
		http.Error(w, "failed to summarize conversations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// ExportCSV streams the filtered records as a CSV download.
// GET /admin/conversations/export
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Exports are not paginated unless the caller asks for a page.
	if filter.Limit <= 0 {
		filter.Limit = 10000
	}

	records, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("export conversations failed", "error", err)
		http.Error(w, "failed to export conversations", http.StatusInternalServerError)
		return
	}

	filename := "conversations-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write([]byte(ExportCSV(records)))
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		PageSection:   q.Get("page_section"),
		InterestLevel: q.Get("interest_level"),
	}

	if v := q.Get("has_email"); v != "" {
		hasEmail, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, errors.New("invalid has_email, expected true or false")
		}
		filter.HasEmail = &hasEmail
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		return Filter{}, err
	}
	filter.DateFrom = from
	filter.DateTo = to

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 10000 {
			return Filter{}, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return Filter{}, errors.New("invalid offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}

// parseDateRange reads date_from/date_to as RFC3339 or YYYY-MM-DD.
// A date-only date_to covers the whole day.
func parseDateRange(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()

	if v := q.Get("date_from"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return nil, nil, errors.New("invalid date_from")
		}
		from = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return nil, nil, errors.New("invalid date_to")
		}
		if dateOnly {
			t = t.Add(24 * time.Hour)
		}
		to = &t
	}
	return from, to, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", v)
	return t, true, err
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/solostudio/funnel-api/pkg/logging"
)

// AdminDashboardHandler serves the funnel overview endpoint.
type AdminDashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAdminDashboardHandler creates a new admin dashboard handler.
func NewAdminDashboardHandler(db *sql.DB, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		db:     db,
		logger: logger,
	}
}

// DashboardOverviewResponse contains the funnel dashboard metrics.
type DashboardOverviewResponse struct {
	Period        string              `json:"period"`
	Conversations ConversationMetrics `json:"conversations"`
	Leads         LeadMetrics         `json:"leads"`
	TopSections   []SectionCount      `json:"top_sections,omitempty"`
}

// ConversationMetrics summarizes call volume.
type ConversationMetrics struct {
	Total       int     `json:"total"`
	Today       int     `json:"today"`
	ThisWeek    int     `json:"this_week"`
	AvgDuration float64 `json:"avg_duration_secs"`
	Successful  int     `json:"successful"`
}

// LeadMetrics summarizes lead capture quality.
type LeadMetrics struct {
	EmailsCollected     int     `json:"emails_collected"`
	EmailCollectionRate float64 `json:"email_collection_rate"`
	HighInterest        int     `json:"high_interest"`
	HighInterestWeek    int     `json:"high_interest_this_week"`
}

// SectionCount is a per-page-section conversation count.
type SectionCount struct {
	Section string `json:"section"`
	Count   int    `json:"count"`
}

// GetDashboardOverview returns the funnel overview.
// GET /admin/dashboard
func (h *AdminDashboardHandler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dashboard := DashboardOverviewResponse{Period: "week"}

	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	today := now.Truncate(24 * time.Hour)

	// Individual metric failures degrade to zero values rather than
	// failing the whole overview.
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations`,
	).Scan(&dashboard.Conversations.Total)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE created_at >= $1`, today,
	).Scan(&dashboard.Conversations.Today)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE created_at >= $1`, weekAgo,
	).Scan(&dashboard.Conversations.ThisWeek)

	h.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(call_duration_secs), 0) FROM conversations`,
	).Scan(&dashboard.Conversations.AvgDuration)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE call_successful`,
	).Scan(&dashboard.Conversations.Successful)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE email <> ''`,
	).Scan(&dashboard.Leads.EmailsCollected)
	if dashboard.Conversations.Total > 0 {
		dashboard.Leads.EmailCollectionRate = float64(dashboard.Leads.EmailsCollected) / float64(dashboard.Conversations.Total)
	}

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE interest_level = 'high'`,
	).Scan(&dashboard.Leads.HighInterest)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE interest_level = 'high' AND created_at >= $1`, weekAgo,
	).Scan(&dashboard.Leads.HighInterestWeek)

	rows, err := h.db.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(page_section, ''), 'unknown') AS section, COUNT(*)
		 FROM conversations
		 GROUP BY section
		 ORDER BY COUNT(*) DESC
		 LIMIT 5`,
	)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var sc SectionCount
			if err := rows.Scan(&sc.Section, &sc.Count); err != nil {
				break
			}
			dashboard.TopSections = append(dashboard.TopSections, sc)
		}
	} else {
		h.logger.Warn("dashboard top sections query failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}

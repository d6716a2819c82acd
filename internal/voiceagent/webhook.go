package voiceagent

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/solostudio/funnel-api/internal/conversations"
	"github.com/solostudio/funnel-api/internal/observability/metrics"
	"github.com/solostudio/funnel-api/pkg/logging"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body,
// prefixed with "sha256=".
const SignatureHeader = "X-Webhook-Signature"

// followUpSender triggers the post-call email pipeline.
type followUpSender interface {
	ProcessConversation(ctx context.Context, rec *conversations.Record) error
}

// WebhookHandler ingests conversation-completion events from the
// voice-agent platform.
type WebhookHandler struct {
	secret   string
	repo     conversations.Repository
	followup followUpSender
	metrics  *metrics.FunnelMetrics
	tracer   trace.Tracer
	logger   *logging.Logger
}

// SetMetrics attaches the metrics sink. Safe to skip; a nil sink
// records nothing.
func (h *WebhookHandler) SetMetrics(m *metrics.FunnelMetrics) {
	h.metrics = m
}

// NewWebhookHandler creates the ingest handler. followup may be nil
// when the email pipeline is disabled.
func NewWebhookHandler(secret string, repo conversations.Repository, followup followUpSender, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		secret:   secret,
		repo:     repo,
		followup: followup,
		tracer:   otel.Tracer("funnel.internal.voiceagent"),
		logger:   logger.Component("voiceagent"),
	}
}

// completionEvent is the platform's post-call payload.
type completionEvent struct {
	ConversationID string            `json:"conversation_id"`
	Transcript     []transcriptEntry `json:"transcript"`
	Analysis       analysisBlock     `json:"analysis"`
	Metadata       metadataBlock     `json:"metadata"`
}

type transcriptEntry struct {
	Role           string `json:"role"`
	Message        string `json:"message"`
	TimeInCallSecs int    `json:"time_in_call_secs"`
}

type analysisBlock struct {
	CallSuccessful string                    `json:"call_successful"`
	DataCollection map[string]collectedValue `json:"data_collection"`
}

// collectedValue is one extracted field; the platform wraps each in
// an object whose value may be a string, number, bool, or null.
type collectedValue struct {
	Value any `json:"value"`
}

func (v collectedValue) asString() string {
	switch val := v.Value.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

type metadataBlock struct {
	CallDurationSecs int    `json:"call_duration_secs"`
	MainLanguage     string `json:"main_language"`
	PageSection      string `json:"page_section"`
}

// HandleCompletion is the HTTP handler for POST /webhooks/voice-agent.
// The event is acked with 200 once the record is persisted; follow-up
// email failures are logged, never surfaced to the platform.
func (h *WebhookHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("voice agent webhook secret not configured")
		http.Error(w, "webhook secret not configured", http.StatusInternalServerError)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "voiceagent.webhook")
	defer span.End()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !verifySignature(h.secret, payload, r.Header.Get(SignatureHeader)) {
		span.RecordError(errors.New("invalid webhook signature"))
		h.logger.Warn("invalid voice agent webhook signature")
		h.metrics.ObserveWebhook("rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var evt completionEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(evt.ConversationID) == "" {
		http.Error(w, "missing conversation_id", http.StatusBadRequest)
		return
	}

	rec := recordFromEvent(&evt)
	if err := rec.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("funnel.conversation_id", rec.ConversationID),
		attribute.String("funnel.interest_level", rec.InterestLevel),
	)

	if err := h.repo.Create(ctx, rec); err != nil {
		span.RecordError(err)
		h.logger.Error("persist conversation failed", "conversation_id", rec.ConversationID, "error", err)
		h.metrics.ObserveWebhook("error")
		http.Error(w, "failed to store conversation", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveWebhook("ingested")

	h.logger.Info("conversation ingested",
		"conversation_id", rec.ConversationID,
		"interest_level", rec.InterestLevel,
		"has_email", rec.HasEmail())

	if h.followup != nil {
		if err := h.followup.ProcessConversation(ctx, rec); err != nil {
			span.RecordError(err)
			h.logger.Error("follow-up dispatch failed", "conversation_id", rec.ConversationID, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func recordFromEvent(evt *completionEvent) *conversations.Record {
	collected := func(key string) string {
		return evt.Analysis.DataCollection[key].asString()
	}

	rec := &conversations.Record{
		ConversationID:   evt.ConversationID,
		Name:             collected("name"),
		Email:            collected("email"),
		Company:          collected("company"),
		Phone:            collected("phone"),
		InterestLevel:    strings.ToLower(collected("interest_level")),
		BudgetRange:      collected("budget_range"),
		Timeline:         collected("timeline"),
		SpecificInterest: collected("specific_interest"),
		PageSection:      evt.Metadata.PageSection,
		CallDurationSecs: evt.Metadata.CallDurationSecs,
		MainLanguage:     evt.Metadata.MainLanguage,
		CallSuccessful:   strings.EqualFold(evt.Analysis.CallSuccessful, "success"),
		CreatedAt:        time.Now().UTC(),
	}
	if rec.PageSection == "" {
		rec.PageSection = collected("page_section")
	}

	for _, turn := range evt.Transcript {
		rec.Transcript = append(rec.Transcript, conversations.TranscriptTurn{
			Role:           turn.Role,
			Message:        turn.Message,
			TimeInCallSecs: turn.TimeInCallSecs,
		})
	}
	return rec
}

func verifySignature(secret string, payload []byte, header string) bool {
	if strings.TrimSpace(secret) == "" || strings.TrimSpace(header) == "" {
		return false
	}
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign computes the signature header value for a payload. Used by
// tests and by local tooling that replays events.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/solostudio/funnel-api/internal/observability/metrics"
	"github.com/solostudio/funnel-api/pkg/logging"
)

var dispatchTracer = otel.Tracer("funnel.internal.notify")

// defaultSubjects maps each form type to the subject used when the
// request does not carry one.
var defaultSubjects = map[FormType]string{
	FormTypeGeneralContact:   "New contact message",
	FormTypeRFPSubmission:    "New project RFP",
	FormTypeScheduleRequest:  "New call scheduling request",
	FormTypeAffiliateSignup:  "New affiliate partner signup",
	FormTypeMobileAppInquiry: "New mobile app inquiry",
	FormTypeVoiceFollowUp:    "Following up on your conversation with us",
	FormTypeHotLeadInternal:  "Hot lead captured by the voice agent",
	FormTypeVoiceThankYou:    "Thanks for chatting with us",
}

// Dispatcher is the single entry point for outbound notifications. One
// Send call produces exactly one provider call: no batching, no retry,
// no local queue. Failures are surfaced to the caller, which owns
// user-visible error display and any retry decision.
type Dispatcher struct {
	sender  EmailSender
	inbox   string
	metrics *metrics.FunnelMetrics
	logger  *logging.Logger
}

// SetMetrics attaches the metrics sink. A nil sink records nothing.
func (d *Dispatcher) SetMetrics(m *metrics.FunnelMetrics) {
	d.metrics = m
}

// NewDispatcher creates a dispatcher. inbox is the studio address that
// receives form submissions and internal notifications.
func NewDispatcher(sender EmailSender, inbox string, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		sender: sender,
		inbox:  inbox,
		logger: logger,
	}
}

// Send forwards the request to the email provider.
func (d *Dispatcher) Send(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if d.sender == nil {
		return fmt.Errorf("notify: no email sender configured")
	}

	ctx, span := dispatchTracer.Start(ctx, "notify.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("funnel.form_type", string(req.FormType)))

	to, toName := d.inbox, ""
	if req.FormType.LeadFacing() {
		to, toName = req.Email, req.Name
	}
	if strings.TrimSpace(to) == "" {
		return ErrMissingRecipient
	}

	subject := req.Subject
	if subject == "" {
		subject = defaultSubjects[req.FormType]
	}

	body := req.Body
	if body == "" {
		body = renderFields(req)
	}

	msg := EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: subject,
		Body:    body,
	}
	start := time.Now()
	if err := d.sender.Send(ctx, msg); err != nil {
		span.RecordError(err)
		d.logger.Error("notification dispatch failed", "form_type", req.FormType, "error", err)
		d.metrics.ObserveDispatch(string(req.FormType), "error")
		return fmt.Errorf("notify: dispatch %s: %w", req.FormType, err)
	}
	d.metrics.ObserveDispatch(string(req.FormType), "sent")
	d.metrics.ObserveDispatchLatency(string(req.FormType), time.Since(start).Seconds())

	d.logger.Info("notification dispatched", "form_type", req.FormType, "to", to)
	return nil
}

// renderFields produces a deterministic plain-text listing of the
// request's flat fields: identity first, then the rest sorted by key.
func renderFields(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form: %s\n", req.FormType)
	fmt.Fprintf(&b, "Name: %s\n", req.Name)
	fmt.Fprintf(&b, "Email: %s\n", req.Email)

	keys := make([]string, 0, len(req.Fields))
	for k := range req.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", fieldLabel(k), req.Fields[k])
	}
	return b.String()
}

// fieldLabel turns a snake_case field key into a readable label.
func fieldLabel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

package followup

import (
	"context"
	"fmt"

	"github.com/solostudio/funnel-api/internal/conversations"
	"github.com/solostudio/funnel-api/internal/notify"
	"github.com/solostudio/funnel-api/pkg/logging"
)

// dispatcher is the slice of notify.Dispatcher the service uses.
// Internal notifications are routed to the operator inbox by the
// dispatcher itself based on the form type.
type dispatcher interface {
	Send(ctx context.Context, req notify.Request) error
}

// Service sends post-conversation follow-up emails and flags hot
// leads to the operator.
type Service struct {
	dispatcher dispatcher
	logger     *logging.Logger
}

// NewService creates a follow-up service.
func NewService(d dispatcher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		dispatcher: d,
		logger:     logger.Component("followup"),
	}
}

// ProcessConversation runs the post-call email pipeline for one
// record: high and medium interest leads get the tiered follow-up,
// low and no interest leads get the short thank-you note. Records
// without an email are skipped entirely.
func (s *Service) ProcessConversation(ctx context.Context, rec *conversations.Record) error {
	if rec == nil || !rec.HasEmail() {
		return nil
	}
	switch Classify(rec) {
	case TierHigh, TierMedium:
		return s.SendFollowUp(ctx, rec)
	default:
		return s.SendThankYou(ctx, rec)
	}
}

// SendFollowUp emails the lead the tier-appropriate follow-up and
// notifies the operator when the lead classifies as high interest.
// The two dispatches have independent failure domains: the internal
// notification is attempted even when the user-facing send fails, and
// its own error is logged but never affects the returned result.
func (s *Service) SendFollowUp(ctx context.Context, rec *conversations.Record) error {
	if rec == nil || !rec.HasEmail() {
		return nil
	}

	tier := Classify(rec)
	req := notify.Request{
		Name:     rec.Name,
		Email:    rec.Email,
		FormType: notify.FormTypeVoiceFollowUp,
		Body:     BuildMessage(tier, ContextFromRecord(rec)),
	}
	sendErr := s.dispatcher.Send(ctx, req)

	s.notifyIfHotLead(ctx, rec, tier)

	if sendErr != nil {
		return fmt.Errorf("followup: send failed: %w", sendErr)
	}
	return nil
}

// SendThankYou emails the short post-call thank-you note.
func (s *Service) SendThankYou(ctx context.Context, rec *conversations.Record) error {
	if rec == nil || !rec.HasEmail() {
		return nil
	}

	req := notify.Request{
		Name:     rec.Name,
		Email:    rec.Email,
		FormType: notify.FormTypeVoiceThankYou,
		Body:     BuildThankYouMessage(ContextFromRecord(rec)),
	}
	if err := s.dispatcher.Send(ctx, req); err != nil {
		return fmt.Errorf("followup: thank-you send failed: %w", err)
	}
	return nil
}

func (s *Service) notifyIfHotLead(ctx context.Context, rec *conversations.Record, tier Tier) {
	if tier != TierHigh || !rec.HasEmail() {
		return
	}

	req := notify.Request{
		Name:     rec.Name,
		Email:    rec.Email,
		FormType: notify.FormTypeHotLeadInternal,
		Body:     BuildHotLeadSummary(rec),
	}
	if err := s.dispatcher.Send(ctx, req); err != nil {
		s.logger.Error("hot lead notification failed",
			"conversation_id", rec.ConversationID,
			"error", err)
	}
}

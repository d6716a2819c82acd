package followup

import (
	"fmt"
	"strings"

	"github.com/solostudio/funnel-api/internal/conversations"
)

// MessageContext carries the personalization fields for a follow-up.
// All fields are optional; defaults are applied during rendering.
type MessageContext struct {
	Name             string
	SpecificInterest string
	BudgetRange      string
	Timeline         string
}

// ContextFromRecord lifts the personalization fields off a record.
func ContextFromRecord(rec *conversations.Record) MessageContext {
	if rec == nil {
		return MessageContext{}
	}
	return MessageContext{
		Name:             rec.Name,
		SpecificInterest: rec.SpecificInterest,
		BudgetRange:      rec.BudgetRange,
		Timeline:         rec.Timeline,
	}
}

// firstName takes the part of a full name before the first space.
func firstName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

func interestOrDefault(interest string) string {
	interest = strings.TrimSpace(interest)
	if interest == "" {
		return "AI solutions"
	}
	return interest
}

// BuildMessage renders the follow-up body for a tier. It is pure:
// the same tier and context always produce the same string.
func BuildMessage(tier Tier, mc MessageContext) string {
	name := firstName(mc.Name)
	interest := interestOrDefault(mc.SpecificInterest)

	switch tier {
	case TierHigh:
		body := fmt.Sprintf(
			"Hi %s,\n\nThanks for the great conversation about %s! Based on what you shared, I'd love to set up a quick call to walk through how we could make this happen for you.",
			name, interest,
		)
		if mc.BudgetRange != "" {
			body += fmt.Sprintf("\n\nI noted your budget range of %s, and we can absolutely work within that.", mc.BudgetRange)
		}
		if mc.Timeline != "" {
			body += fmt.Sprintf("\n\nWith your %s timeline in mind, I'll prioritize getting you a concrete proposal quickly.", mc.Timeline)
		}
		body += "\n\nJust reply to this email and we'll find a time that works.\n\nBest,\nSolo Studio"
		return body

	case TierMedium:
		return fmt.Sprintf(
			"Hi %s,\n\nThanks for stopping by and chatting about %s! If you'd like to explore what a project could look like, I'm happy to share some examples of similar work and answer any questions.\n\nNo pressure, just reply whenever you're ready.\n\nBest,\nSolo Studio",
			name, interest,
		)

	case TierLow:
		return fmt.Sprintf(
			"Hi %s,\n\nThanks for checking out %s. I'll leave a few resources below in case they're useful, and if anything sparks an idea later, you know where to find me.\n\nBest,\nSolo Studio",
			name, interest,
		)

	default:
		return fmt.Sprintf(
			"Hi %s,\n\nThanks for visiting! If you ever want to talk about %s, just reply to this email.\n\nBest,\nSolo Studio",
			name, interest,
		)
	}
}

// BuildThankYouMessage renders the short post-call thank-you note.
func BuildThankYouMessage(mc MessageContext) string {
	return fmt.Sprintf(
		"Hi %s,\n\nThanks for taking the time to chat today! It was great learning about what you're working on. I'll follow up soon with anything we discussed.\n\nBest,\nSolo Studio",
		firstName(mc.Name),
	)
}

// BuildHotLeadSummary renders the internal notification body for a
// high-interest lead.
func BuildHotLeadSummary(rec *conversations.Record) string {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = "(no name)"
	}
	body := fmt.Sprintf("High-interest lead from conversation %s:\n\nName: %s\nEmail: %s", rec.ConversationID, name, rec.Email)
	if rec.Company != "" {
		body += "\nCompany: " + rec.Company
	}
	if rec.Phone != "" {
		body += "\nPhone: " + rec.Phone
	}
	if rec.SpecificInterest != "" {
		body += "\nInterest: " + rec.SpecificInterest
	}
	if rec.BudgetRange != "" {
		body += "\nBudget: " + rec.BudgetRange
	}
	if rec.Timeline != "" {
		body += "\nTimeline: " + rec.Timeline
	}
	if rec.PageSection != "" {
		body += "\nPage section: " + rec.PageSection
	}
	body += "\n\nFollow up while it's warm."
	return body
}

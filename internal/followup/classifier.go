package followup

import (
	"strings"

	"github.com/solostudio/funnel-api/internal/conversations"
)

// Tier is the interest tier a conversation classifies into.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
	TierNone   Tier = "none"
)

// Classify maps a conversation record to a tier. The tier is taken
// from the interest level the voice-agent platform already attached;
// nothing is computed from the transcript. Absent or unrecognized
// values fall through to TierNone, so classification never fails.
func Classify(rec *conversations.Record) Tier {
	if rec == nil {
		return TierNone
	}
	switch strings.ToLower(strings.TrimSpace(rec.InterestLevel)) {
	case conversations.InterestHigh:
		return TierHigh
	case conversations.InterestMedium:
		return TierMedium
	case conversations.InterestLow:
		return TierLow
	default:
		return TierNone
	}
}

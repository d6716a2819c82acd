package followup

import (
	"testing"

	"github.com/solostudio/funnel-api/internal/conversations"
)

func TestClassify_Total(t *testing.T) {
	tests := []struct {
		level string
		want  Tier
	}{
		{"high", TierHigh},
		{"medium", TierMedium},
		{"low", TierLow},
		{"none", TierNone},
		{"", TierNone},
		{"  HIGH  ", TierHigh},
		{"enthusiastic", TierNone},
		{"HIGH INTEREST", TierNone},
	}

	for _, tt := range tests {
		rec := &conversations.Record{ConversationID: "c", InterestLevel: tt.level}
		if got := Classify(rec); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestClassify_NilRecord(t *testing.T) {
	if got := Classify(nil); got != TierNone {
		t.Errorf("Classify(nil) = %s, want none", got)
	}
}

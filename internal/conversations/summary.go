package conversations

// UnknownBucket groups records whose section or interest level was
// never collected.
const UnknownBucket = "unknown"

// Summary is the aggregate view over a set of conversation records.
type Summary struct {
	TotalConversations  int            `json:"total_conversations"`
	WithEmail           int            `json:"with_email"`
	EmailCollectionRate float64        `json:"email_collection_rate"`
	AvgCallDurationSecs float64        `json:"avg_call_duration_secs"`
	HighInterestLeads   int            `json:"high_interest_leads"`
	BySection           map[string]int `json:"by_section"`
	ByInterestLevel     map[string]int `json:"by_interest_level"`
}

// ComputeSummary aggregates records into a Summary. An empty input
// yields zero rates rather than dividing by zero.
func ComputeSummary(records []*Record) *Summary {
	s := &Summary{
		BySection:       make(map[string]int),
		ByInterestLevel: make(map[string]int),
	}

	totalDuration := 0
	for _, rec := range records {
		s.TotalConversations++
		if rec.HasEmail() {
			s.WithEmail++
		}
		if rec.InterestLevel == InterestHigh {
			s.HighInterestLeads++
		}
		totalDuration += rec.CallDurationSecs

		section := rec.PageSection
		if section == "" {
			section = UnknownBucket
		}
		s.BySection[section]++

		level := rec.InterestLevel
		if level == "" {
			level = UnknownBucket
		}
		s.ByInterestLevel[level]++
	}

	if s.TotalConversations > 0 {
		s.EmailCollectionRate = float64(s.WithEmail) / float64(s.TotalConversations)
		s.AvgCallDurationSecs = float64(totalDuration) / float64(s.TotalConversations)
	}
	return s
}

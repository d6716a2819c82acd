package conversations

import (
	"strconv"
	"strings"
	"time"
)

// csvColumns is the fixed export column order.
var csvColumns = []string{
	"Conversation ID",
	"Date",
	"Name",
	"Email",
	"Company",
	"Phone",
	"Interest Level",
	"Budget Range",
	"Timeline",
	"Specific Interest",
	"Page Section",
	"Duration (sec)",
	"Language",
	"Successful",
}

// ExportCSV renders records as CSV with every field individually
// quoted, one row per record, in the fixed column order. It is a pure
// formatting function with no I/O; empty fields render as "".
func ExportCSV(records []*Record) string {
	var b strings.Builder
	writeRow(&b, csvColumns)

	for _, rec := range records {
		date := ""
		if !rec.CreatedAt.IsZero() {
			date = rec.CreatedAt.UTC().Format(time.RFC3339)
		}
		successful := "No"
		if rec.CallSuccessful {
			successful = "Yes"
		}
		writeRow(&b, []string{
			rec.ConversationID,
			date,
			rec.Name,
			rec.Email,
			rec.Company,
			rec.Phone,
			rec.InterestLevel,
			rec.BudgetRange,
			rec.Timeline,
			rec.SpecificInterest,
			rec.PageSection,
			strconv.Itoa(rec.CallDurationSecs),
			rec.MainLanguage,
			successful,
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

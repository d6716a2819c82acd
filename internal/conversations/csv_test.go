package conversations

import (
	"strings"
	"testing"
	"time"
)

func TestExportCSV_HeaderOnly(t *testing.T) {
	out := ExportCSV(nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if !strings.HasPrefix(lines[0], `"Conversation ID","Date","Name"`) {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasSuffix(lines[0], `"Language","Successful"`) {
		t.Errorf("unexpected header tail: %s", lines[0])
	}
}

func TestExportCSV_RowShapeAndQuoting(t *testing.T) {
	rec := &Record{
		ConversationID:   "conv_1",
		Name:             `Jane "JJ" Doe`,
		Email:            "jane@acme.com",
		CallDurationSecs: 95,
		CallSuccessful:   true,
		CreatedAt:        time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
	}

	out := ExportCSV([]*Record{rec})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}

	row := lines[1]
	if !strings.Contains(row, `"Jane ""JJ"" Doe"`) {
		t.Errorf("embedded quotes not escaped: %s", row)
	}
	if !strings.Contains(row, `"2026-03-10T14:30:00Z"`) {
		t.Errorf("date not RFC3339 UTC: %s", row)
	}
	if !strings.HasSuffix(row, `"95","","Yes"`) {
		t.Errorf("unexpected row tail: %s", row)
	}
	if got := strings.Count(row, `","`); got != len(csvColumns)-1 {
		t.Errorf("field count = %d, want %d", got+1, len(csvColumns))
	}
}

func TestExportCSV_EmptyFieldsQuoted(t *testing.T) {
	out := ExportCSV([]*Record{{ConversationID: "conv_2"}})
	row := strings.Split(strings.TrimRight(out, "\n"), "\n")[1]
	if !strings.HasPrefix(row, `"conv_2","","","","","","","","","","","0","","No"`) {
		t.Errorf("unexpected row: %s", row)
	}
}

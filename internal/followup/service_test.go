package followup

import (
	"context"
	"errors"
	"testing"

	"github.com/solostudio/funnel-api/internal/conversations"
	"github.com/solostudio/funnel-api/internal/notify"
)

type recordingDispatcher struct {
	requests []notify.Request
	failOn   map[notify.FormType]error
}

func (d *recordingDispatcher) Send(_ context.Context, req notify.Request) error {
	if err := d.failOn[req.FormType]; err != nil {
		return err
	}
	d.requests = append(d.requests, req)
	return nil
}

func hotRecord() *conversations.Record {
	return &conversations.Record{
		ConversationID: "conv_hot",
		Name:           "Jane Doe",
		Email:          "jane@acme.com",
		InterestLevel:  "high",
		BudgetRange:    "$50k+",
		Timeline:       "ASAP",
	}
}

func TestSendFollowUp_HighInterestSendsBoth(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, nil)

	if err := svc.SendFollowUp(context.Background(), hotRecord()); err != nil {
		t.Fatalf("SendFollowUp failed: %v", err)
	}

	if len(d.requests) != 2 {
		t.Fatalf("len(requests) = %d, want 2", len(d.requests))
	}
	if d.requests[0].FormType != notify.FormTypeVoiceFollowUp {
		t.Errorf("first form_type = %s, want voice_agent_follow_up", d.requests[0].FormType)
	}
	if d.requests[0].Email != "jane@acme.com" {
		t.Errorf("follow-up email = %q, want jane@acme.com", d.requests[0].Email)
	}
	if d.requests[1].FormType != notify.FormTypeHotLeadInternal {
		t.Errorf("second form_type = %s, want internal_hot_lead_notification", d.requests[1].FormType)
	}
}

func TestSendFollowUp_MediumInterestSkipsInternal(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, nil)

	rec := hotRecord()
	rec.InterestLevel = "medium"
	if err := svc.SendFollowUp(context.Background(), rec); err != nil {
		t.Fatalf("SendFollowUp failed: %v", err)
	}

	if len(d.requests) != 1 {
		t.Fatalf("len(requests) = %d, want 1", len(d.requests))
	}
	if d.requests[0].FormType != notify.FormTypeVoiceFollowUp {
		t.Errorf("form_type = %s, want voice_agent_follow_up", d.requests[0].FormType)
	}
}

func TestSendFollowUp_NoEmailNoSend(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, nil)

	rec := hotRecord()
	rec.Email = ""
	if err := svc.SendFollowUp(context.Background(), rec); err != nil {
		t.Fatalf("SendFollowUp failed: %v", err)
	}
	if len(d.requests) != 0 {
		t.Errorf("len(requests) = %d, want 0", len(d.requests))
	}
}

func TestSendFollowUp_FollowUpFailurePropagates(t *testing.T) {
	sendErr := errors.New("provider down")
	d := &recordingDispatcher{failOn: map[notify.FormType]error{
		notify.FormTypeVoiceFollowUp: sendErr,
	}}
	svc := NewService(d, nil)

	err := svc.SendFollowUp(context.Background(), hotRecord())
	if !errors.Is(err, sendErr) {
		t.Fatalf("error = %v, want wrapped provider error", err)
	}
	// The internal notification still goes out when the user-facing
	// send fails; the provider rejecting the lead's address must not
	// hide the hot lead from the operator.
	if len(d.requests) != 1 {
		t.Fatalf("len(requests) = %d, want 1", len(d.requests))
	}
	if d.requests[0].FormType != notify.FormTypeHotLeadInternal {
		t.Errorf("form_type = %s, want internal_hot_lead_notification", d.requests[0].FormType)
	}
}

func TestSendFollowUp_InternalFailureDoesNotPropagate(t *testing.T) {
	d := &recordingDispatcher{failOn: map[notify.FormType]error{
		notify.FormTypeHotLeadInternal: errors.New("inbox rejected"),
	}}
	svc := NewService(d, nil)

	if err := svc.SendFollowUp(context.Background(), hotRecord()); err != nil {
		t.Fatalf("SendFollowUp failed: %v", err)
	}
	if len(d.requests) != 1 {
		t.Errorf("len(requests) = %d, want 1 (user-facing only)", len(d.requests))
	}
}

func TestProcessConversation_RoutesByTier(t *testing.T) {
	cases := []struct {
		interest string
		want     notify.FormType
	}{
		{"high", notify.FormTypeVoiceFollowUp},
		{"medium", notify.FormTypeVoiceFollowUp},
		{"low", notify.FormTypeVoiceThankYou},
		{"none", notify.FormTypeVoiceThankYou},
		{"", notify.FormTypeVoiceThankYou},
	}
	for _, tc := range cases {
		d := &recordingDispatcher{}
		svc := NewService(d, nil)

		rec := hotRecord()
		rec.InterestLevel = tc.interest
		if err := svc.ProcessConversation(context.Background(), rec); err != nil {
			t.Fatalf("ProcessConversation(%q) failed: %v", tc.interest, err)
		}
		if len(d.requests) == 0 {
			t.Fatalf("ProcessConversation(%q) sent nothing", tc.interest)
		}
		if d.requests[0].FormType != tc.want {
			t.Errorf("ProcessConversation(%q) form_type = %s, want %s", tc.interest, d.requests[0].FormType, tc.want)
		}
	}
}

func TestProcessConversation_NilRecord(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, nil)

	if err := svc.ProcessConversation(context.Background(), nil); err != nil {
		t.Fatalf("ProcessConversation(nil) failed: %v", err)
	}
	if len(d.requests) != 0 {
		t.Errorf("len(requests) = %d, want 0", len(d.requests))
	}
}

func TestSendThankYou(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, nil)

	rec := hotRecord()
	rec.InterestLevel = "low"
	if err := svc.SendThankYou(context.Background(), rec); err != nil {
		t.Fatalf("SendThankYou failed: %v", err)
	}

	if len(d.requests) != 1 {
		t.Fatalf("len(requests) = %d, want 1", len(d.requests))
	}
	if d.requests[0].FormType != notify.FormTypeVoiceThankYou {
		t.Errorf("form_type = %s, want voice_agent_thank_you", d.requests[0].FormType)
	}
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestDispatcher_Send_FormSubmissionGoesToInbox(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, "inbox@solostudio.dev", nil)

	err := d.Send(context.Background(), Request{
		Name:     "John Doe",
		Email:    "john@acme.com",
		FormType: FormTypeRFPSubmission,
		Fields: map[string]string{
			"company":      "Acme Inc.",
			"project_type": "Mobile App",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "inbox@solostudio.dev" {
		t.Errorf("expected inbox recipient, got %q", msg.To)
	}
	if msg.Subject != "New project RFP" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Name: John Doe", "Email: john@acme.com", "Company: Acme Inc.", "Project Type: Mobile App"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestDispatcher_Send_LeadFacingGoesToLead(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, "inbox@solostudio.dev", nil)

	err := d.Send(context.Background(), Request{
		Name:     "Jane Lead",
		Email:    "lead@co.com",
		FormType: FormTypeVoiceFollowUp,
		Body:     "Hi Jane, great talking to you.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "lead@co.com" {
		t.Errorf("expected lead recipient, got %q", sender.sent[0].To)
	}
	if sender.sent[0].Body != "Hi Jane, great talking to you." {
		t.Errorf("expected body passthrough, got %q", sender.sent[0].Body)
	}
}

func TestDispatcher_Send_MissingFormType(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, "inbox@solostudio.dev", nil)
	err := d.Send(context.Background(), Request{Name: "x", Email: "x@y.z"})
	if !errors.Is(err, ErrMissingFormType) {
		t.Fatalf("expected ErrMissingFormType, got %v", err)
	}
}

func TestDispatcher_Send_UnknownFormType(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, "inbox@solostudio.dev", nil)
	err := d.Send(context.Background(), Request{FormType: FormType("newsletter")})
	if !errors.Is(err, ErrUnknownFormType) {
		t.Fatalf("expected ErrUnknownFormType, got %v", err)
	}
}

func TestDispatcher_Send_LeadFacingRequiresEmail(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, "inbox@solostudio.dev", nil)
	err := d.Send(context.Background(), Request{
		Name:     "No Email",
		FormType: FormTypeVoiceThankYou,
	})
	if !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
}

func TestDispatcher_Send_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("provider down")
	d := NewDispatcher(&recordingSender{err: boom}, "inbox@solostudio.dev", nil)
	err := d.Send(context.Background(), Request{
		Name:     "John",
		Email:    "john@acme.com",
		FormType: FormTypeGeneralContact,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestRenderFields_Deterministic(t *testing.T) {
	req := Request{
		Name:     "A",
		Email:    "a@b.c",
		FormType: FormTypeGeneralContact,
		Fields: map[string]string{
			"zeta":  "1",
			"alpha": "2",
			"mid":   "3",
		},
	}
	first := renderFields(req)
	for i := 0; i < 10; i++ {
		if got := renderFields(req); got != first {
			t.Fatalf("expected deterministic rendering, got diff:\n%s\nvs\n%s", first, got)
		}
	}
	if !strings.Contains(first, "Alpha: 2\nMid: 3\nZeta: 1\n") {
		t.Errorf("expected sorted field order, got:\n%s", first)
	}
}

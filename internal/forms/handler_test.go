package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/solostudio/funnel-api/internal/notify"
)

func newTestHandler(sender Sender) (*Handler, *InMemorySessionStore) {
	store := NewInMemorySessionStore()
	return NewHandler(store, sender, 0, nil, nil), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandler_CreateSession_UnknownFormType(t *testing.T) {
	h, _ := newTestHandler(&captureSender{})
	r := h.Routes()

	w := doJSON(t, r, http.MethodPost, "/sessions", CreateSessionRequest{FormType: "newsletter"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandler_CreateSession_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler(&captureSender{})
	r := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandler_RFPFlow(t *testing.T) {
	sender := &captureSender{}
	h, _ := newTestHandler(sender)
	r := h.Routes()

	w := doJSON(t, r, http.MethodPost, "/sessions", CreateSessionRequest{FormType: notify.FormTypeRFPSubmission})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	sess := decodeSession(t, w)
	if sess.Step != 1 || sess.StepCount != 3 || sess.State != StateEditing {
		t.Fatalf("unexpected initial session %+v", sess)
	}
	base := "/sessions/" + sess.SessionID

	// Advancing an empty draft is a no-op.
	w = doJSON(t, r, http.MethodPost, base+"/advance", nil)
	if got := decodeSession(t, w); got.Step != 1 {
		t.Fatalf("expected cursor pinned at 1, got %d", got.Step)
	}

	// Step 1 fields, then advance.
	w = doJSON(t, r, http.MethodPost, base+"/fields", UpdateFieldsRequest{Fields: map[string]string{
		"company":      "Acme Inc.",
		"contact_name": "John Doe",
		"email":        "john@acme.com",
	}})
	if got := decodeSession(t, w); !got.CanAdvance {
		t.Fatal("expected can_advance after filling step 1")
	}
	w = doJSON(t, r, http.MethodPost, base+"/advance", nil)
	if got := decodeSession(t, w); got.Step != 2 {
		t.Fatalf("expected step 2, got %d", got.Step)
	}

	// Step 2, then step 3.
	doJSON(t, r, http.MethodPost, base+"/fields", UpdateFieldsRequest{Fields: map[string]string{
		"project_type": "Mobile App",
		"budget_range": "$10,000 - $25,000",
		"timeline":     "1-2 Months",
	}})
	doJSON(t, r, http.MethodPost, base+"/advance", nil)
	w = doJSON(t, r, http.MethodPost, base+"/fields", UpdateFieldsRequest{Fields: map[string]string{
		"goals": "launch in Q2",
	}})
	if got := decodeSession(t, w); !got.CanSubmit {
		t.Fatal("expected can_submit at step 3 with all fields")
	}

	w = doJSON(t, r, http.MethodPost, base+"/submit", nil)
	got := decodeSession(t, w)
	if got.State != StateSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", got.State, got.Error)
	}
	if len(sender.requests) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(sender.requests))
	}
	if sender.requests[0].FormType != notify.FormTypeRFPSubmission {
		t.Errorf("expected rfp_submission, got %s", sender.requests[0].FormType)
	}
	if sender.requests[0].Fields["company"] != "Acme Inc." {
		t.Errorf("expected flat company field, got %v", sender.requests[0].Fields)
	}
}

func TestHandler_Submit_DispatchFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("provider down")}
	h, _ := newTestHandler(sender)
	r := h.Routes()

	w := doJSON(t, r, http.MethodPost, "/sessions", CreateSessionRequest{FormType: notify.FormTypeGeneralContact})
	sess := decodeSession(t, w)
	base := "/sessions/" + sess.SessionID

	doJSON(t, r, http.MethodPost, base+"/fields", UpdateFieldsRequest{Fields: map[string]string{
		"name":    "Jane",
		"email":   "jane@example.com",
		"message": "hello",
	}})
	w = doJSON(t, r, http.MethodPost, base+"/submit", nil)
	got := decodeSession(t, w)
	if got.State != StateFailed {
		t.Fatalf("expected failed state, got %s", got.State)
	}
	if got.Error != SubmitErrorMessage {
		t.Fatalf("expected user-facing message, got %q", got.Error)
	}
	if got.Fields["message"] != "hello" {
		t.Error("expected draft preserved across failed submit")
	}
}

func TestHandler_GetSession_NotFound(t *testing.T) {
	h, _ := newTestHandler(&captureSender{})
	r := h.Routes()

	w := doJSON(t, r, http.MethodGet, "/sessions/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandler_CloseSession_DiscardsDraft(t *testing.T) {
	h, store := newTestHandler(&captureSender{})
	r := h.Routes()

	w := doJSON(t, r, http.MethodPost, "/sessions", CreateSessionRequest{FormType: notify.FormTypeGeneralContact})
	sess := decodeSession(t, w)

	w = doJSON(t, r, http.MethodDelete, "/sessions/"+sess.SessionID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, err := store.Get(t.Context(), sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session deleted, got %v", err)
	}
}

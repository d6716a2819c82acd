package forms

import (
	"encoding/json"
	"strings"
)

// Draft is the mutable, session-owned record behind one open form.
// Fields are stored flat under dotted keys, so nested updates like
// payment_details.bank_details.account_number merge without any schema.
// It is never persisted as-is; Snapshot produces the flattened record
// handed to the notification dispatcher.
type Draft struct {
	fields map[string]string
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{fields: make(map[string]string)}
}

// DraftFromFields restores a draft from a stored session.
func DraftFromFields(fields map[string]string) *Draft {
	d := NewDraft()
	for k, v := range fields {
		d.fields[k] = v
	}
	return d
}

// Set merges a single field into the draft. No validation happens here.
func (d *Draft) Set(key, value string) {
	d.fields[key] = value
}

// Get returns the raw value for a key ("" when unset).
func (d *Draft) Get(key string) string {
	return d.fields[key]
}

// Filled reports whether the key holds a non-blank value.
func (d *Draft) Filled(key string) bool {
	return strings.TrimSpace(d.fields[key]) != ""
}

// Fields returns a copy of the raw dotted-key field map.
func (d *Draft) Fields() map[string]string {
	out := make(map[string]string, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// Reset discards all field values.
func (d *Draft) Reset() {
	d.fields = make(map[string]string)
}

const (
	paymentPrefix     = "payment_details."
	paymentBankPrefix = "payment_details.bank_details."
	socialPrefix      = "social_links."

	paymentMethodKey = "payment_details.method"
	payoutEmailKey   = "payment_details.payout_email"
)

// Snapshot flattens the draft into the top-level string keys the
// dispatcher expects:
//   - payment_details.method            -> payment_method
//   - payment_details.bank_details.X    -> bank_X
//   - payment_details.payout_email      -> payout_email
//   - social_links.*                    -> one JSON-stringified social_links field
//   - any other dotted key              -> dots become underscores
//
// Only the sub-record matching the chosen payment method survives: bank
// fields and the payout email are mutually exclusive. With no method
// selected the whole payment group is dropped, since the payment
// sub-record is optional in its entirety.
func (d *Draft) Snapshot() map[string]string {
	out := make(map[string]string, len(d.fields))
	social := make(map[string]string)
	method := strings.TrimSpace(d.fields[paymentMethodKey])

	for k, v := range d.fields {
		switch {
		case strings.HasPrefix(k, socialPrefix):
			if strings.TrimSpace(v) != "" {
				social[strings.TrimPrefix(k, socialPrefix)] = v
			}
		case strings.HasPrefix(k, paymentBankPrefix):
			if method == "bank" {
				out["bank_"+strings.TrimPrefix(k, paymentBankPrefix)] = v
			}
		case k == payoutEmailKey:
			if method != "" && method != "bank" {
				out["payout_email"] = v
			}
		case k == paymentMethodKey:
			if method != "" {
				out["payment_method"] = method
			}
		case strings.Contains(k, "."):
			out[strings.ReplaceAll(k, ".", "_")] = v
		default:
			out[k] = v
		}
	}

	if len(social) > 0 {
		// encoding/json sorts map keys, so this is deterministic.
		if data, err := json.Marshal(social); err == nil {
			out["social_links"] = string(data)
		}
	}

	return out
}

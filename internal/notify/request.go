package notify

import "errors"

// FormType discriminates which funnel surface produced a notification.
// The provider-side template (and the local rendering fallback) key off it.
type FormType string

const (
	FormTypeGeneralContact   FormType = "general_contact"
	FormTypeRFPSubmission    FormType = "rfp_submission"
	FormTypeScheduleRequest  FormType = "schedule_request"
	FormTypeAffiliateSignup  FormType = "affiliate_signup"
	FormTypeMobileAppInquiry FormType = "mobile_app_inquiry"
	FormTypeVoiceFollowUp    FormType = "voice_agent_follow_up"
	FormTypeHotLeadInternal  FormType = "internal_hot_lead_notification"
	FormTypeVoiceThankYou    FormType = "voice_agent_thank_you"
)

var (
	// ErrMissingFormType is returned when a request carries no discriminator.
	ErrMissingFormType = errors.New("notify: form_type is required")

	// ErrUnknownFormType is returned for a discriminator outside the fixed set.
	ErrUnknownFormType = errors.New("notify: unknown form_type")

	// ErrMissingRecipient is returned when no destination address can be resolved.
	ErrMissingRecipient = errors.New("notify: no recipient address")
)

// Valid reports whether the form type is one of the fixed set.
func (t FormType) Valid() bool {
	switch t {
	case FormTypeGeneralContact, FormTypeRFPSubmission, FormTypeScheduleRequest,
		FormTypeAffiliateSignup, FormTypeMobileAppInquiry, FormTypeVoiceFollowUp,
		FormTypeHotLeadInternal, FormTypeVoiceThankYou:
		return true
	}
	return false
}

// LeadFacing reports whether the notification is addressed to the lead
// themselves rather than the studio inbox.
func (t FormType) LeadFacing() bool {
	return t == FormTypeVoiceFollowUp || t == FormTypeVoiceThankYou
}

// Request is an immutable notification to be forwarded to the email
// provider. Fields carries all additional values as flat string pairs;
// callers JSON-stringify any nested objects before building a Request.
type Request struct {
	Name     string
	Email    string
	FormType FormType
	Subject  string
	Body     string
	Fields   map[string]string
}

// Validate checks the parts of the request the dispatcher depends on.
func (r Request) Validate() error {
	if r.FormType == "" {
		return ErrMissingFormType
	}
	if !r.FormType.Valid() {
		return ErrUnknownFormType
	}
	return nil
}

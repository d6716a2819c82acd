package forms

import "github.com/solostudio/funnel-api/internal/notify"

// Step is one screen of a form: the field keys that must be non-blank
// before the cursor may advance past it. Optional fields never gate
// progression and are not listed.
type Step struct {
	Required []string
}

// Definition describes one funnel form: its dispatch discriminator and
// its ordered steps. NameField/EmailField name the draft keys holding
// the lead's identity (most forms use name/email, the RFP form labels
// the contact differently).
type Definition struct {
	Type       notify.FormType
	Steps      []Step
	NameField  string
	EmailField string
}

// StepCount returns N, the number of steps in the form.
func (d Definition) StepCount() int {
	return len(d.Steps)
}

// Select option lists rendered by the site. Empty string is the
// unselected sentinel and fails the required check.
var (
	ProjectTypeOptions = []string{
		"Website",
		"Mobile App",
		"Web App",
		"AI Integration",
		"Voice Agent",
		"Other",
	}

	BudgetRangeOptions = []string{
		"Under $5,000",
		"$5,000 - $10,000",
		"$10,000 - $25,000",
		"$25,000 - $50,000",
		"$50k+",
	}

	TimelineOptions = []string{
		"ASAP",
		"1-2 Months",
		"3-6 Months",
		"Flexible",
	}

	// PaymentMethodOptions are the affiliate payout methods. Bank
	// transfers use the bank sub-record, Wise uses a payout email.
	PaymentMethodOptions = []string{
		"wise",
		"bank",
	}
)

var definitions = map[notify.FormType]Definition{
	notify.FormTypeGeneralContact: {
		Type: notify.FormTypeGeneralContact,
		Steps: []Step{
			{Required: []string{"name", "email", "message"}},
		},
		NameField:  "name",
		EmailField: "email",
	},
	notify.FormTypeScheduleRequest: {
		Type: notify.FormTypeScheduleRequest,
		Steps: []Step{
			{Required: []string{"name", "email"}},
		},
		NameField:  "name",
		EmailField: "email",
	},
	notify.FormTypeMobileAppInquiry: {
		Type: notify.FormTypeMobileAppInquiry,
		Steps: []Step{
			{Required: []string{"name", "email", "app_description"}},
		},
		NameField:  "name",
		EmailField: "email",
	},
	notify.FormTypeRFPSubmission: {
		Type: notify.FormTypeRFPSubmission,
		Steps: []Step{
			{Required: []string{"company", "contact_name", "email"}},
			{Required: []string{"project_type", "budget_range", "timeline"}},
			{Required: []string{"goals"}},
		},
		NameField:  "contact_name",
		EmailField: "email",
	},
	notify.FormTypeAffiliateSignup: {
		Type: notify.FormTypeAffiliateSignup,
		Steps: []Step{
			{Required: []string{"name", "email"}},
		},
		NameField:  "name",
		EmailField: "email",
	},
}

// Lookup returns the definition for a submittable form type.
func Lookup(t notify.FormType) (Definition, bool) {
	def, ok := definitions[t]
	return def, ok
}

// Types lists the form types that can be opened as sessions.
func Types() []notify.FormType {
	return []notify.FormType{
		notify.FormTypeGeneralContact,
		notify.FormTypeScheduleRequest,
		notify.FormTypeMobileAppInquiry,
		notify.FormTypeRFPSubmission,
		notify.FormTypeAffiliateSignup,
	}
}

package forms

import "testing"

func TestSnapshot_BankMethodFlattensBankFields(t *testing.T) {
	d := NewDraft()
	d.Set("name", "Ada Lovelace")
	d.Set("email", "ada@example.com")
	d.Set("payment_details.method", "bank")
	d.Set("payment_details.bank_details.account_number", "12345678")
	d.Set("payment_details.bank_details.routing_number", "000111222")
	d.Set("payment_details.payout_email", "stale@example.com")

	snap := d.Snapshot()

	if snap["payment_method"] != "bank" {
		t.Errorf("expected payment_method bank, got %q", snap["payment_method"])
	}
	if snap["bank_account_number"] != "12345678" {
		t.Errorf("expected flattened bank account, got %q", snap["bank_account_number"])
	}
	if snap["bank_routing_number"] != "000111222" {
		t.Errorf("expected flattened routing number, got %q", snap["bank_routing_number"])
	}
	// Bank and payout email are mutually exclusive.
	if _, ok := snap["payout_email"]; ok {
		t.Error("expected payout_email dropped when method is bank")
	}
}

func TestSnapshot_WiseMethodKeepsPayoutEmailOnly(t *testing.T) {
	d := NewDraft()
	d.Set("payment_details.method", "wise")
	d.Set("payment_details.payout_email", "payout@example.com")
	d.Set("payment_details.bank_details.account_number", "12345678")

	snap := d.Snapshot()

	if snap["payment_method"] != "wise" {
		t.Errorf("expected payment_method wise, got %q", snap["payment_method"])
	}
	if snap["payout_email"] != "payout@example.com" {
		t.Errorf("expected payout_email kept, got %q", snap["payout_email"])
	}
	if _, ok := snap["bank_account_number"]; ok {
		t.Error("expected bank fields dropped when method is wise")
	}
}

func TestSnapshot_NoMethodDropsPaymentGroup(t *testing.T) {
	d := NewDraft()
	d.Set("name", "Ada")
	d.Set("payment_details.bank_details.account_number", "12345678")
	d.Set("payment_details.payout_email", "payout@example.com")

	snap := d.Snapshot()

	for _, key := range []string{"payment_method", "payout_email", "bank_account_number"} {
		if _, ok := snap[key]; ok {
			t.Errorf("expected %s absent without a payment method", key)
		}
	}
	if snap["name"] != "Ada" {
		t.Errorf("expected plain field kept, got %q", snap["name"])
	}
}

func TestSnapshot_SocialLinksJSONStringified(t *testing.T) {
	d := NewDraft()
	d.Set("social_links.twitter", "https://twitter.com/ada")
	d.Set("social_links.youtube", "https://youtube.com/@ada")
	d.Set("social_links.blank", "  ")

	snap := d.Snapshot()

	want := `{"twitter":"https://twitter.com/ada","youtube":"https://youtube.com/@ada"}`
	if snap["social_links"] != want {
		t.Errorf("expected JSON-stringified social links\nwant %s\ngot  %s", want, snap["social_links"])
	}
	if _, ok := snap["social_links.twitter"]; ok {
		t.Error("expected dotted social keys collapsed")
	}
}

func TestSnapshot_OtherDottedKeysUnderscored(t *testing.T) {
	d := NewDraft()
	d.Set("project.details", "big")

	snap := d.Snapshot()
	if snap["project_details"] != "big" {
		t.Errorf("expected dotted key underscored, got %v", snap)
	}
}

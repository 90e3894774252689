package forms

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":            true,
		"  parent@home.org": true,
		"no-at.example.com": false,
		"two@@example.com":  false,
		"a b@c.d":           false,
		"a@b":               false,
		"":                  false,
	}
	for in, want := range cases {
		require.Equal(t, want, ValidEmail(in), in)
	}
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("$1,250.50")
	require.True(t, ok)
	require.InDelta(t, 1250.5, v, 0.0001)

	for _, in := range []string{"", "0", "-5", "abc", "NaN", "Inf"} {
		_, ok := ParseAmount(in)
		require.False(t, ok, in)
	}
}

func TestDonationValidation(t *testing.T) {
	d := ParseDonation(url.Values{"amount": {"100"}, "payment_method": {"card"}})
	fields := fieldErrors(t, d.Validate())
	require.Contains(t, fields, "card_number")
	require.Contains(t, fields, "expiry")
	require.Contains(t, fields, "cvv")
	require.NotContains(t, fields, "amount")

	d = ParseDonation(url.Values{
		"amount":         {"25"},
		"custom_amount":  {"75"},
		"frequency":      {"monthly"},
		"payment_method": {"card"},
		"card_number":    {"4242 4242 4242 4242"},
		"expiry":         {"12/30"},
		"cvv":            {"123"},
	})
	require.NoError(t, d.Validate())
	require.Equal(t, "75", d.Amount)
	require.InDelta(t, 75.0, d.AmountValue(), 0.0001)

	sub := d.Submission()
	require.Equal(t, KindDonation, sub.Kind)
	require.NotContains(t, sub.Payload, "cardNumber")
}

func TestDonationRequiresAmount(t *testing.T) {
	fields := fieldErrors(t, ParseDonation(url.Values{"payment_method": {"card"}}).Validate())
	require.Equal(t, "Please select or enter an amount", fields["amount"])

	fields = fieldErrors(t, ParseDonation(url.Values{"amount": {"-1"}}).Validate())
	require.Equal(t, "Please enter a positive amount", fields["amount"])
	require.Contains(t, fields, "payment_method")
}

func TestSponsorshipValidation(t *testing.T) {
	fields := fieldErrors(t, ParseSponsorship(url.Values{
		"company":   {"A"},
		"contact":   {"Jo"},
		"email":     {"bad"},
		"phone":     {"555"},
		"interests": {"short"},
	}).Validate())
	require.Len(t, fields, 4)
	require.NotContains(t, fields, "contact")

	require.NoError(t, ParseSponsorship(url.Values{
		"company":   {"Acme Robotics"},
		"contact":   {"Lee Park"},
		"email":     {"lee@acme.io"},
		"phone":     {"415-555-0100"},
		"interests": {"Sponsoring a summer robotics camp"},
	}).Validate())
}

func TestNewsletterConsent(t *testing.T) {
	n := ParseNewsletter(url.Values{"email": {"a@b.co"}}, true)
	fields := fieldErrors(t, n.Validate())
	require.Contains(t, fields, "consent")

	n = ParseNewsletter(url.Values{"email": {"a@b.co"}, "consent": {"on"}, "age_group": {"on"}}, true)
	require.NoError(t, n.Validate())
	require.True(t, n.AgeGroup)

	footer := ParseNewsletter(url.Values{"email": {"a@b.co"}}, false)
	require.NoError(t, footer.Validate())
	require.Equal(t, true, footer.Submission().Payload["consent"])
}

func TestVolunteerValidation(t *testing.T) {
	fields := fieldErrors(t, ParseVolunteer(url.Values{"availability": {"sometimes"}}).Validate())
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "skills")
	require.Equal(t, "Please tell us when you can help", fields["availability"])

	require.NoError(t, ParseVolunteer(url.Values{
		"name":         {"Sam Rivera"},
		"email":        {"sam@example.org"},
		"availability": {"weekends"},
		"skills":       {"Python, robotics"},
	}).Validate())
}

func TestRSVPValidation(t *testing.T) {
	ages := []string{"3–5", "6–9"}
	fields := fieldErrors(t, ParseRSVP("1", url.Values{"child_age": {"99"}}).Validate(ages))
	require.Contains(t, fields, "parent_name")
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "child_age")

	r := ParseRSVP("1", url.Values{"parent_name": {"Kim"}, "email": {"kim@x.io"}, "child_age": {"6–9"}})
	require.NoError(t, r.Validate(ages))
	require.Equal(t, "1", r.EventID)
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	require.Equal(t, "forms: invalid input (a: one; b: two)", err.Error())
	require.Equal(t, "one", err.Field("a"))

	var nilErr *ValidationError
	require.Empty(t, nilErr.Field("a"))
}

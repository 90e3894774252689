// Package forms validates the outreach forms and runs their submissions as explicit tasks.
package forms

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/curiositycreators/website/internal/cms"
)

// Kind names a form. It doubles as the outreach endpoint segment.
type Kind string

const (
	KindDonation      Kind = "donation"
	KindQuickDonation Kind = "quick-donation"
	KindSponsorship   Kind = "sponsorship"
	KindNewsletter    Kind = "newsletter"
	KindVolunteer     Kind = "volunteer"
	KindRSVP          Kind = "rsvp"
)

// Latencies holds the simulated round-trip per form kind.
var Latencies = map[Kind]time.Duration{
	KindDonation:      2000 * time.Millisecond,
	KindQuickDonation: 1000 * time.Millisecond,
	KindSponsorship:   1500 * time.Millisecond,
	KindNewsletter:    1000 * time.Millisecond,
	KindVolunteer:     1000 * time.Millisecond,
	KindRSVP:          0,
}

// SuggestedAmounts are the preset donation buttons in dollars.
var SuggestedAmounts = []int{25, 50, 100, 250, 500, 1000}

// Frequencies accepted by the donation form.
var Frequencies = []string{"one-time", "monthly"}

// PaymentMethods accepted by the donation form.
var PaymentMethods = []string{"card"}

// Availabilities accepted by the volunteer form.
var Availabilities = []string{"weekdays", "weekends", "evenings", "flexible"}

// Submission is what a Sender transmits.
type Submission struct {
	Kind    Kind
	Payload map[string]any
}

// Donation is the main donation dialog.
type Donation struct {
	Amount        string
	Frequency     string
	PaymentMethod string
	CardNumber    string
	Expiry        string
	CVV           string
}

// NewDonation returns the form defaults.
func NewDonation() Donation { return Donation{Frequency: "one-time"} }

// ParseDonation reads a donation from posted form values. A custom amount wins over a preset.
func ParseDonation(v url.Values) Donation {
	d := Donation{
		Amount:        strings.TrimSpace(v.Get("custom_amount")),
		Frequency:     strings.TrimSpace(v.Get("frequency")),
		PaymentMethod: strings.TrimSpace(v.Get("payment_method")),
		CardNumber:    strings.ReplaceAll(strings.TrimSpace(v.Get("card_number")), " ", ""),
		Expiry:        strings.TrimSpace(v.Get("expiry")),
		CVV:           strings.TrimSpace(v.Get("cvv")),
	}
	if d.Amount == "" {
		d.Amount = strings.TrimSpace(v.Get("amount"))
	}
	if d.Frequency == "" {
		d.Frequency = "one-time"
	}
	return d
}

// Validate applies the donation rules.
func (d Donation) Validate() error {
	var v validator
	if v.required("amount", d.Amount, "Please select or enter an amount") {
		if _, ok := ParseAmount(d.Amount); !ok {
			v.fail("amount", "Please enter a positive amount")
		}
	}
	v.oneOf("frequency", d.Frequency, Frequencies, "Please choose one-time or monthly")
	if v.required("payment_method", d.PaymentMethod, "Please select a payment method") {
		v.oneOf("payment_method", d.PaymentMethod, PaymentMethods, "Please select a payment method")
	}
	if d.PaymentMethod == "card" {
		v.minLen("card_number", d.CardNumber, 16, "Please enter a valid card number")
		v.minLen("expiry", d.Expiry, 5, "Please enter expiry date (MM/YY)")
		v.minLen("cvv", d.CVV, 3, "Please enter CVV")
	}
	return v.err()
}

// AmountValue returns the parsed amount; callers validate first.
func (d Donation) AmountValue() float64 {
	f, _ := ParseAmount(d.Amount)
	return f
}

// IsPreset reports whether amount equals the suggested preset.
func (d Donation) IsPreset(amount int) bool {
	return strings.TrimSpace(d.Amount) == strconv.Itoa(amount)
}

// Submission omits card details; they never leave the process.
func (d Donation) Submission() Submission {
	return Submission{Kind: KindDonation, Payload: map[string]any{
		"amount":        d.AmountValue(),
		"frequency":     d.Frequency,
		"paymentMethod": d.PaymentMethod,
	}}
}

// QuickDonation is the single-field donate dialog in the hero and header.
type QuickDonation struct {
	Amount string
}

// ParseQuickDonation reads a quick donation from posted form values.
func ParseQuickDonation(v url.Values) QuickDonation {
	return QuickDonation{Amount: strings.TrimSpace(v.Get("amount"))}
}

// Validate applies the amount rule.
func (q QuickDonation) Validate() error {
	var v validator
	if v.required("amount", q.Amount, "Please enter an amount") {
		if _, ok := ParseAmount(q.Amount); !ok {
			v.fail("amount", "Please enter a positive amount")
		}
	}
	return v.err()
}

// AmountValue returns the parsed amount; callers validate first.
func (q QuickDonation) AmountValue() float64 {
	f, _ := ParseAmount(q.Amount)
	return f
}

// Submission builds the outbound payload.
func (q QuickDonation) Submission() Submission {
	return Submission{Kind: KindQuickDonation, Payload: map[string]any{"amount": q.AmountValue()}}
}

// Sponsorship is the corporate partnership inquiry.
type Sponsorship struct {
	Company   string
	Contact   string
	Email     string
	Phone     string
	Interests string
}

// ParseSponsorship reads a sponsorship inquiry from posted form values.
func ParseSponsorship(v url.Values) Sponsorship {
	return Sponsorship{
		Company:   strings.TrimSpace(v.Get("company")),
		Contact:   strings.TrimSpace(v.Get("contact")),
		Email:     strings.TrimSpace(v.Get("email")),
		Phone:     strings.TrimSpace(v.Get("phone")),
		Interests: cms.PlainText(v.Get("interests")),
	}
}

// Validate applies the sponsorship rules.
func (s Sponsorship) Validate() error {
	var v validator
	v.minLen("company", s.Company, 2, "Company name is required")
	v.minLen("contact", s.Contact, 2, "Contact name is required")
	v.email("email", s.Email)
	v.minLen("phone", s.Phone, 10, "Please enter a valid phone number")
	v.minLen("interests", s.Interests, 10, "Please describe your interests")
	return v.err()
}

// Submission builds the outbound payload.
func (s Sponsorship) Submission() Submission {
	return Submission{Kind: KindSponsorship, Payload: map[string]any{
		"company":   s.Company,
		"contact":   s.Contact,
		"email":     s.Email,
		"phone":     s.Phone,
		"interests": s.Interests,
	}}
}

// Newsletter is the support-section signup. The footer signup uses the same type
// with RequireConsent unset.
type Newsletter struct {
	Email          string
	AgeGroup       bool
	Consent        bool
	RequireConsent bool
}

// ParseNewsletter reads a signup from posted form values.
func ParseNewsletter(v url.Values, requireConsent bool) Newsletter {
	return Newsletter{
		Email:          strings.TrimSpace(v.Get("email")),
		AgeGroup:       checkbox(v.Get("age_group")),
		Consent:        checkbox(v.Get("consent")),
		RequireConsent: requireConsent,
	}
}

// Validate applies the newsletter rules.
func (n Newsletter) Validate() error {
	var v validator
	v.email("email", n.Email)
	if n.RequireConsent && !n.Consent {
		v.fail("consent", "Please consent to receive updates")
	}
	return v.err()
}

// Submission builds the outbound payload.
func (n Newsletter) Submission() Submission {
	return Submission{Kind: KindNewsletter, Payload: map[string]any{
		"email":    n.Email,
		"ageGroup": n.AgeGroup,
		"consent":  n.Consent || !n.RequireConsent,
	}}
}

// Volunteer is the volunteer application.
type Volunteer struct {
	Name         string
	Email        string
	Availability string
	Skills       string
}

// ParseVolunteer reads an application from posted form values.
func ParseVolunteer(v url.Values) Volunteer {
	return Volunteer{
		Name:         strings.TrimSpace(v.Get("name")),
		Email:        strings.TrimSpace(v.Get("email")),
		Availability: strings.TrimSpace(v.Get("availability")),
		Skills:       cms.PlainText(v.Get("skills")),
	}
}

// Validate applies the volunteer rules.
func (vol Volunteer) Validate() error {
	var v validator
	v.required("name", vol.Name, "Full name is required")
	v.email("email", vol.Email)
	if v.required("availability", vol.Availability, "Please tell us when you can help") {
		v.oneOf("availability", vol.Availability, Availabilities, "Please tell us when you can help")
	}
	v.required("skills", vol.Skills, "Please tell us about your skills and interests")
	return v.err()
}

// Submission builds the outbound payload.
func (vol Volunteer) Submission() Submission {
	return Submission{Kind: KindVolunteer, Payload: map[string]any{
		"name":         vol.Name,
		"email":        vol.Email,
		"availability": vol.Availability,
		"skills":       vol.Skills,
	}}
}

// RSVP is the guardian details collected before reserving an event seat.
type RSVP struct {
	EventID    string
	ParentName string
	Email      string
	ChildAge   string
	Notes      string
}

// ParseRSVP reads RSVP details from posted form values.
func ParseRSVP(eventID string, v url.Values) RSVP {
	return RSVP{
		EventID:    eventID,
		ParentName: strings.TrimSpace(v.Get("parent_name")),
		Email:      strings.TrimSpace(v.Get("email")),
		ChildAge:   strings.TrimSpace(v.Get("child_age")),
		Notes:      cms.PlainText(v.Get("notes")),
	}
}

// Validate applies the RSVP rules. ageRanges is the catalog's age range option list.
func (r RSVP) Validate(ageRanges []string) error {
	var v validator
	v.required("parent_name", r.ParentName, "Parent/guardian name is required")
	v.email("email", r.Email)
	if v.required("child_age", r.ChildAge, "Please select an age range") {
		v.oneOf("child_age", r.ChildAge, ageRanges, "Please select an age range")
	}
	return v.err()
}

// Submission forwards the guardian details; the seat itself is reserved by the catalog.
func (r RSVP) Submission() Submission {
	return Submission{Kind: KindRSVP, Payload: map[string]any{
		"eventId":    r.EventID,
		"parentName": r.ParentName,
		"email":      r.Email,
		"childAge":   r.ChildAge,
		"notes":      r.Notes,
	}}
}

func checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

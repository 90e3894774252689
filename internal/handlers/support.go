package handlers

import (
	"errors"
	"strconv"

	"github.com/curiositycreators/website/internal/forms"
)

// FormState is shared by every outreach form view.
type FormState struct {
	Lang      string
	CSRFToken string
	Action    string
	Errors    map[string]string
	// Submitted switches the form to its thank-you panel.
	Submitted bool
}

// Error returns the inline message for field.
func (s FormState) Error(field string) string { return s.Errors[field] }

// HasErrors reports whether validation failed.
func (s FormState) HasErrors() bool { return len(s.Errors) > 0 }

func newState(lang, csrf, action string, err error) FormState {
	st := FormState{Lang: lang, CSRFToken: csrf, Action: action}
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		st.Errors = verr.Fields
	}
	return st
}

// Option is a labelled select/radio choice.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// AmountOption is a preset donation button.
type AmountOption struct {
	Value    int
	Label    string
	Selected bool
}

// DonationForm is the main donation card.
type DonationForm struct {
	FormState
	forms.Donation
	Amounts     []AmountOption
	Frequencies []Option
}

// CustomAmount returns the entered amount when it is not one of the presets.
func (f DonationForm) CustomAmount() string {
	for _, a := range forms.SuggestedAmounts {
		if f.IsPreset(a) {
			return ""
		}
	}
	return f.Amount
}

// NewDonationForm renders the donation form for d. err carries validation failures.
func NewDonationForm(lang, csrf string, d forms.Donation, err error, tr Translator) DonationForm {
	f := DonationForm{FormState: newState(lang, csrf, "/support/donate", err), Donation: d}
	for _, a := range forms.SuggestedAmounts {
		f.Amounts = append(f.Amounts, AmountOption{Value: a, Label: "$" + strconv.Itoa(a), Selected: d.IsPreset(a)})
	}
	for _, fr := range forms.Frequencies {
		f.Frequencies = append(f.Frequencies, Option{Value: fr, Label: tr("support.donate.frequency." + fr), Selected: d.Frequency == fr})
	}
	return f
}

// QuickDonateForm is the single-amount dialog used by the hero and the header.
type QuickDonateForm struct {
	FormState
	Placement string
	Amount    string
	Presets   []AmountOption
}

var quickPresets = []int{25, 50, 100}

// NewQuickDonateForm renders the dialog with $50 preselected.
func NewQuickDonateForm(lang, csrf, placement string) QuickDonateForm {
	return QuickDonateFormFrom(lang, csrf, placement, forms.QuickDonation{Amount: "50"}, nil)
}

// QuickDonateFormFrom re-renders the dialog with the posted amount.
func QuickDonateFormFrom(lang, csrf, placement string, q forms.QuickDonation, err error) QuickDonateForm {
	f := QuickDonateForm{
		FormState: newState(lang, csrf, "/support/quick-donate", err),
		Placement: placement,
		Amount:    q.Amount,
	}
	for _, a := range quickPresets {
		f.Presets = append(f.Presets, AmountOption{Value: a, Label: "$" + strconv.Itoa(a), Selected: q.Amount == strconv.Itoa(a)})
	}
	return f
}

// SponsorshipForm is the corporate partnership inquiry.
type SponsorshipForm struct {
	FormState
	forms.Sponsorship
}

// NewSponsorshipForm renders the sponsorship form.
func NewSponsorshipForm(lang, csrf string, s forms.Sponsorship, err error) SponsorshipForm {
	return SponsorshipForm{FormState: newState(lang, csrf, "/support/sponsor", err), Sponsorship: s}
}

// NewsletterForm is either the support-section signup or the footer signup.
type NewsletterForm struct {
	FormState
	forms.Newsletter
	Footer bool
}

// NewNewsletterForm renders the support-section signup.
func NewNewsletterForm(lang, csrf string, n forms.Newsletter, err error) NewsletterForm {
	n.RequireConsent = true
	return NewsletterForm{FormState: newState(lang, csrf, "/support/newsletter", err), Newsletter: n}
}

// NewFooterNewsletterForm renders the email-only footer signup.
func NewFooterNewsletterForm(lang, csrf string) NewsletterForm {
	return FooterNewsletterFormFrom(lang, csrf, forms.Newsletter{}, nil)
}

// FooterNewsletterFormFrom re-renders the footer signup.
func FooterNewsletterFormFrom(lang, csrf string, n forms.Newsletter, err error) NewsletterForm {
	return NewsletterForm{FormState: newState(lang, csrf, "/newsletter", err), Newsletter: n, Footer: true}
}

// VolunteerForm is the volunteer application.
type VolunteerForm struct {
	FormState
	forms.Volunteer
	Availabilities []Option
}

// NewVolunteerForm renders the volunteer form.
func NewVolunteerForm(lang, csrf string, vol forms.Volunteer, err error, tr Translator) VolunteerForm {
	f := VolunteerForm{FormState: newState(lang, csrf, "/support/volunteer", err), Volunteer: vol}
	for _, a := range forms.Availabilities {
		f.Availabilities = append(f.Availabilities, Option{Value: a, Label: tr("volunteer.availability." + a), Selected: vol.Availability == a})
	}
	return f
}

// SupportView is the get-involved section.
type SupportView struct {
	Lang        string
	Donation    DonationForm
	Sponsorship SponsorshipForm
	Newsletter  NewsletterForm
	Volunteer   VolunteerForm
}

// BuildSupport renders every form at its defaults.
func BuildSupport(lang, csrf string, tr Translator) SupportView {
	return SupportView{
		Lang:        lang,
		Donation:    NewDonationForm(lang, csrf, forms.NewDonation(), nil, tr),
		Sponsorship: NewSponsorshipForm(lang, csrf, forms.Sponsorship{}, nil),
		Newsletter:  NewNewsletterForm(lang, csrf, forms.Newsletter{}, nil),
		Volunteer:   NewVolunteerForm(lang, csrf, forms.Volunteer{}, nil, tr),
	}
}

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/format"
	"github.com/curiositycreators/website/internal/forms"
	"github.com/curiositycreators/website/internal/handlers"
	mw "github.com/curiositycreators/website/internal/middleware"
	"github.com/curiositycreators/website/internal/notify"
)

const supportAnchor = "/#get-involved"

type outreachForm interface {
	Validate() error
	Submission() forms.Submission
}

// submitOutreach validates f and waits for its delivery. instance scopes the in-flight
// gate together with the viewer.
func submitOutreach(r *http.Request, instance string, f outreachForm) (forms.Receipt, error) {
	if err := f.Validate(); err != nil {
		return forms.Receipt{}, err
	}
	task, err := formSubmitter.Submit(r.Context(), forms.Key(mw.ViewerID(r), forms.Kind(instance)), f.Submission())
	if err != nil {
		return forms.Receipt{}, err
	}
	return task.Wait(r.Context())
}

// outreachFailed answers every unsuccessful submission. It reports false when err is nil.
// rerender draws the form with the posted values and inline errors.
func outreachFailed(w http.ResponseWriter, r *http.Request, err error, failCode string, rerender func(status int)) bool {
	if err == nil {
		return false
	}
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		if !isHTMX(r) {
			respondToast(w, r, "submission_failed", false, supportAnchor)
			return true
		}
		w.Header().Set("HX-Reswap", "outerHTML")
		rerender(http.StatusUnprocessableEntity)
	case errors.Is(err, forms.ErrInFlight):
		inFlight(w, r, supportAnchor)
	default:
		mw.L(r).Warn("outreach submission failed", zap.Error(err))
		respondToast(w, r, failCode, false, supportAnchor)
		if isHTMX(r) {
			w.WriteHeader(http.StatusBadGateway)
		}
	}
	return true
}

// outreachDone emits the success toast. It reports true when a redirect was written
// and the caller must not render.
func outreachDone(w http.ResponseWriter, r *http.Request, code, text string) bool {
	if !isHTMX(r) {
		respondToast(w, r, code, true, supportAnchor)
		return true
	}
	if text == "" {
		text = message(mw.Lang(r), code)
	}
	notify.Trigger(w, notify.Toast{Level: notify.Success, Message: text})
	return false
}

// DonateHandler processes the main donation form.
func DonateHandler(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	tr := translator(lang)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	d := forms.ParseDonation(r.PostForm)
	_, err := submitOutreach(r, string(forms.KindDonation), d)
	if outreachFailed(w, r, err, "donation_failed", func(status int) {
		renderTemplate(w, r, status, "donation_form", handlers.NewDonationForm(lang, csrf, d, err, tr))
	}) {
		return
	}

	text := fmt.Sprintf(tr("toast.donation_processed"), tr("support.donate.frequency."+d.Frequency), format.FmtCurrency(d.AmountValue(), "USD", lang))
	if outreachDone(w, r, "donated", text) {
		return
	}
	renderTemplate(w, r, http.StatusOK, "donation_form", handlers.NewDonationForm(lang, csrf, forms.NewDonation(), nil, tr))
}

// QuickDonateHandler processes the hero and header donate dialogs.
func QuickDonateHandler(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	placement := r.PostFormValue("placement")
	if placement != "header" {
		placement = "hero"
	}
	q := forms.ParseQuickDonation(r.PostForm)
	_, err := submitOutreach(r, string(forms.KindQuickDonation), q)
	if outreachFailed(w, r, err, "donation_failed", func(status int) {
		renderTemplate(w, r, status, "quick_donate_form", handlers.QuickDonateFormFrom(lang, csrf, placement, q, err))
	}) {
		return
	}

	text := fmt.Sprintf(translator(lang)("toast.quick_donated"), format.FmtCurrency(q.AmountValue(), "USD", lang))
	if outreachDone(w, r, "donated", text) {
		return
	}
	notify.TriggerEvent(w, "dialog-close", map[string]string{"id": placement + "-donate-dialog"})
	renderTemplate(w, r, http.StatusOK, "quick_donate_form", handlers.NewQuickDonateForm(lang, csrf, placement))
}

// SponsorHandler processes the corporate sponsorship inquiry.
func SponsorHandler(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s := forms.ParseSponsorship(r.PostForm)
	_, err := submitOutreach(r, string(forms.KindSponsorship), s)
	if outreachFailed(w, r, err, "submission_failed", func(status int) {
		renderTemplate(w, r, status, "sponsorship_form", handlers.NewSponsorshipForm(lang, csrf, s, err))
	}) {
		return
	}
	if outreachDone(w, r, "sponsorship_sent", "") {
		return
	}
	view := handlers.NewSponsorshipForm(lang, csrf, forms.Sponsorship{}, nil)
	view.Submitted = true
	renderTemplate(w, r, http.StatusOK, "sponsorship_form", view)
}

// NewsletterHandler processes the support-section signup.
func NewsletterHandler(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	n := forms.ParseNewsletter(r.PostForm, true)
	_, err := submitOutreach(r, string(forms.KindNewsletter), n)
	if outreachFailed(w, r, err, "subscribe_failed", func(status int) {
		renderTemplate(w, r, status, "newsletter_form", handlers.NewNewsletterForm(lang, csrf, n, err))
	}) {
		return
	}
	if outreachDone(w, r, "subscribed", "") {
		return
	}
	view := handlers.NewNewsletterForm(lang, csrf, forms.Newsletter{}, nil)
	view.Submitted = true
	renderTemplate(w, r, http.StatusOK, "newsletter_form", view)
}

// FooterNewsletterHandler processes the email-only footer signup.
func FooterNewsletterHandler(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	n := forms.ParseNewsletter(r.PostForm, false)
	_, err := submitOutreach(r, "newsletter-footer", n)
	if outreachFailed(w, r, err, "subscribe_failed", func(status int) {
		renderTemplate(w, r, status, "newsletter_form", handlers.FooterNewsletterFormFrom(lang, csrf, n, err))
	}) {
		return
	}
	if outreachDone(w, r, "footer_subscribed", "") {
		return
	}
	renderTemplate(w, r, http.StatusOK, "newsletter_form", handlers.NewFooterNewsletterForm(lang, csrf))
}

// VolunteerHandler processes the volunteer application.
func VolunteerHandler(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	tr := translator(lang)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	vol := forms.ParseVolunteer(r.PostForm)
	_, err := submitOutreach(r, string(forms.KindVolunteer), vol)
	if outreachFailed(w, r, err, "submission_failed", func(status int) {
		renderTemplate(w, r, status, "volunteer_form", handlers.NewVolunteerForm(lang, csrf, vol, err, tr))
	}) {
		return
	}
	if outreachDone(w, r, "volunteer_received", "") {
		return
	}
	view := handlers.NewVolunteerForm(lang, csrf, forms.Volunteer{}, nil, tr)
	view.Submitted = true
	renderTemplate(w, r, http.StatusOK, "volunteer_form", view)
}

// SupportFormFrag renders a form at its defaults; thank-you panels link here to start over.
func SupportFormFrag(w http.ResponseWriter, r *http.Request) {
	lang, csrf := mw.Lang(r), mw.CSRFToken(r)
	tr := translator(lang)
	switch chi.URLParam(r, "form") {
	case "donation":
		renderTemplate(w, r, http.StatusOK, "donation_form", handlers.NewDonationForm(lang, csrf, forms.NewDonation(), nil, tr))
	case "sponsorship":
		renderTemplate(w, r, http.StatusOK, "sponsorship_form", handlers.NewSponsorshipForm(lang, csrf, forms.Sponsorship{}, nil))
	case "newsletter":
		renderTemplate(w, r, http.StatusOK, "newsletter_form", handlers.NewNewsletterForm(lang, csrf, forms.Newsletter{}, nil))
	case "volunteer":
		renderTemplate(w, r, http.StatusOK, "volunteer_form", handlers.NewVolunteerForm(lang, csrf, forms.Volunteer{}, nil, tr))
	default:
		http.NotFound(w, r)
	}
}

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/config"
	"github.com/curiositycreators/website/internal/forms"
	"github.com/curiositycreators/website/internal/testutil"
)

// newTestRouter wires fresh services against the repository templates and locales.
// Form delivery succeeds immediately.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := config.Load(config.WithEnvMap(map[string]string{
		"CC_WEB_DEV":           "1",
		"CC_WEB_TEMPLATES_DIR": "../../templates",
		"CC_WEB_PUBLIC_DIR":    "../../public",
		"CC_WEB_LOCALES_DIR":   "../../locales",
		"CC_WEB_BASE_URL":      "https://curiosity.example.org",
	}), config.WithoutSystemEnv(), config.WithEnvFile(""))
	require.NoError(t, err)
	require.NoError(t, initServices(cfg, zap.NewNop()))
	t.Cleanup(carouselHub.Close)

	formSubmitter = forms.NewSubmitter(&forms.Simulated{
		Wait: func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
	_, err = parseTemplates()
	require.NoError(t, err)
	return newRouter()
}

// visitor carries one browser's cookies across requests.
type visitor struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]string
}

func newVisitor(t *testing.T, h http.Handler) *visitor {
	t.Helper()
	v := &visitor{t: t, h: h, cookies: map[string]string{}}
	rec := v.do(http.MethodGet, "/frag/events", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, v.cookies["csrf_token"], "csrf cookie")
	require.NotEmpty(t, v.cookies["CC_WEB_SESSION"], "session cookie")
	return v
}

func (v *visitor) do(method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	v.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if tok := v.cookies["csrf_token"]; tok != "" {
		req.Header.Set("X-CSRF-Token", tok)
	}
	for name, value := range v.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	rec := httptest.NewRecorder()
	v.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		v.cookies[c.Name] = c.Value
	}
	return rec
}

func TestHealthzOK(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestHomeRendersEverySection(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	for _, id := range []string{"#hero", "#programs", "#events", "#impact", "#get-involved", "#about"} {
		assert.Equal(t, 1, doc.Find(id).Length(), "section %s", id)
	}
	assert.Equal(t, 4, doc.Find(".program-card").Length())
	assert.Equal(t, 3, doc.Find(".event-card").Length())
	assert.Contains(t, doc.Find("#site-header nav").Text(), "Programs")
	assert.NotEmpty(t, testutil.Text(doc, ".testimonial blockquote"))
	assert.Equal(t, 1, doc.Find(`[data-countup-src="/impact/metrics/stream"]`).Length())
	assert.Positive(t, doc.Find(`script[type="application/ld+json"]`).Length())
	assert.Equal(t, "https://curiosity.example.org/", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
}

func TestHomeLocalizedNavES(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?hl=es", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "es", doc.Find("html").AttrOr("lang", ""))
	assert.Contains(t, doc.Find("#site-header nav").Text(), "Programas")
}

func TestProgramsFragmentPushesFilterURL(t *testing.T) {
	srv := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/frag/programs?age="+url.QueryEscape("6–9"), nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "/?age="+url.QueryEscape("6–9"), rec.Header().Get("HX-Push-Url"))
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, 2, doc.Find(".program-card").Length())
	age := doc.Find(`.filters [data-filter="age"] a.chip.selected`)
	require.Equal(t, 1, age.Length())
	assert.Equal(t, "6–9", strings.TrimSpace(age.Text()))
	assert.Equal(t, 0, doc.Find(`.filters [data-filter="topic"] a.chip.selected`).Length())
	// the format row always has exactly one choice, "all" by default
	assert.Equal(t, 1, doc.Find(`.filters [data-filter="format"] a.chip.selected`).Length())
	assert.Equal(t, 1, doc.Find(".filters a.clear").Length())
}

func TestProgramsFragmentRejectsUnknownFilter(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frag/programs?topic=Cooking", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostRequiresCSRF(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)
	delete(v.cookies, "csrf_token")
	rec := v.do(http.MethodPost, "/programs/1/register", url.Values{}, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProgramRegisterIsIdempotent(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)

	rec := v.do(http.MethodPost, "/programs/1/register", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Registration successful")
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, 1, doc.Find("#program-1 .badge-success").Length())

	rec = v.do(http.MethodPost, "/programs/1/register", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "already registered")

	rec = v.do(http.MethodPost, "/programs/404/register", url.Values{}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func rsvpForm() url.Values {
	return url.Values{
		"parent_name": {"Ana Lopez"},
		"email":       {"ana@example.org"},
		"child_age":   {"6–9"},
	}
}

func TestRSVPStopsAtCapacity(t *testing.T) {
	srv := newTestRouter(t)

	// Event 2 seeds 18 of 25 seats.
	for i := 0; i < 7; i++ {
		v := newVisitor(t, srv)
		rec := v.do(http.MethodPost, "/events/2/rsvp", rsvpForm(), true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Contains(t, rec.Header().Get("HX-Trigger"), "RSVP confirmed")
		assert.Equal(t, "#event-2", rec.Header().Get("HX-Retarget"))
		assert.Contains(t, rec.Header().Get("HX-Trigger"), "dialog-close")
	}

	late := newVisitor(t, srv)
	rec := late.do(http.MethodPost, "/events/2/rsvp", rsvpForm(), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "at capacity")
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, 1, doc.Find("#event-2.full").Length())
}

func TestRSVPTwiceKeepsOneSeat(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)

	rec := v.do(http.MethodPost, "/events/1/rsvp", rsvpForm(), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = v.do(http.MethodPost, "/events/1/rsvp", rsvpForm(), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "already RSVPed")

	// Event 1 seeds 32 of 50 seats.
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "17 of 50 seats left", testutil.Text(doc, "#event-1 .seats"))
}

func TestRSVPValidationRerendersForm(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)
	rec := v.do(http.MethodPost, "/events/1/rsvp", url.Values{"email": {"nope"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "outerHTML", rec.Header().Get("HX-Reswap"))

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, 1, doc.Find("form#rsvp-form").Length())
	assert.Equal(t, "nope", doc.Find(`input[name="email"]`).AttrOr("value", ""))
	assert.Contains(t, doc.Find(".field-error").Text(), "Parent/guardian name is required")
}

func TestTicketQRRequiresRSVP(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)

	rec := v.do(http.MethodGet, "/events/3/ticket.png", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = v.do(http.MethodPost, "/events/3/rsvp", rsvpForm(), true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = v.do(http.MethodGet, "/events/3/ticket.png", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestVolunteerValidationReturns422(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)
	rec := v.do(http.MethodPost, "/support/volunteer", url.Values{"email": {"x@y"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "outerHTML", rec.Header().Get("HX-Reswap"))
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Contains(t, doc.Find(".field-error").Text(), "Full name is required")
}

func TestNewsletterSuccessShowsThankYou(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)
	rec := v.do(http.MethodPost, "/support/newsletter", url.Values{
		"email":   {"family@example.org"},
		"consent": {"on"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Welcome!")
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, 1, doc.Find(".thank-you").Length())
	assert.Equal(t, "/frag/support/newsletter", doc.Find(".thank-you button").AttrOr("hx-get", ""))
}

func TestDonationFailureKeepsForm(t *testing.T) {
	srv := newTestRouter(t)
	formSubmitter = forms.NewSubmitter(&forms.Simulated{
		Wait: func(ctx context.Context, _ time.Duration) error { return nil },
		Fail: func(forms.Submission) error { return forms.ErrSimulatedNetworkFailure },
	})
	v := newVisitor(t, srv)
	rec := v.do(http.MethodPost, "/support/donate", url.Values{
		"amount":         {"50"},
		"frequency":      {"monthly"},
		"payment_method": {"card"},
		"card_number":    {"4242 4242 4242 4242"},
		"expiry":         {"12/30"},
		"cvv":            {"123"},
	}, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Payment failed")
}

func TestQuickDonateNonHTMXRedirects(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)
	form := url.Values{"amount": {"25"}, "placement": {"hero"}, "csrf_token": {v.cookies["csrf_token"]}}
	rec := v.do(http.MethodPost, "/support/quick-donate", form, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "ok=donated")
}

func TestAnonymousPageViewsDoNotRetainCarousels(t *testing.T) {
	srv := newTestRouter(t)
	for i := 0; i < 50; i++ {
		for _, target := range []string{"/", "/frag/impact"} {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	}
	assert.Zero(t, carouselHub.Len())

	v := newVisitor(t, srv)
	rec := v.do(http.MethodPost, "/impact/testimonials/goto/3", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, carouselHub.Len())

	rec = v.do(http.MethodGet, "/frag/impact", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "3", doc.Find(".testimonial").AttrOr("data-index", ""), "page renders the viewer's slide")
	assert.Equal(t, 1, carouselHub.Len())
}

func TestTestimonialNavigation(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)

	rec := v.do(http.MethodPost, "/impact/testimonials/next", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "1", doc.Find(".testimonial").AttrOr("data-index", ""))

	rec = v.do(http.MethodPost, "/impact/testimonials/prev", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "0", doc.Find(".testimonial").AttrOr("data-index", ""))

	rec = v.do(http.MethodPost, "/impact/testimonials/prev", url.Values{}, true)
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "4", doc.Find(".testimonial").AttrOr("data-index", ""), "prev wraps to the last slide")

	rec = v.do(http.MethodPost, "/impact/testimonials/goto/2", url.Values{}, true)
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "2", doc.Find(".testimonial").AttrOr("data-index", ""))
	assert.Equal(t, "true", doc.Find(".carousel-dots .dot.active").AttrOr("aria-selected", ""))

	rec = v.do(http.MethodPost, "/impact/testimonials/goto/99", url.Values{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReducedMotionDisablesStreams(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?motion=reduce", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.True(t, doc.Find("body").HasClass("reduced-motion"))
	assert.Zero(t, doc.Find(`[sse-connect="/impact/testimonials/stream"]`).Length())
	assert.Zero(t, doc.Find("[data-countup-src]").Length())
	assert.Zero(t, doc.Find(".partners.marquee").Length())
	assert.Equal(t, "25,000+", testutil.Text(doc, "#metric-students"))
}

func TestMetricsStreamReducedMotionSendsFinalValues(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/impact/metrics/stream?motion=reduce", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: metric-students\ndata: 25,000+\n")
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: \n\n"))
}

func TestExploreRemembersAgeRange(t *testing.T) {
	srv := newTestRouter(t)
	v := newVisitor(t, srv)

	rec := v.do(http.MethodPost, "/explore", url.Values{"age": {"10–13"}}, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "scroll-to")
	assert.Equal(t, url.QueryEscape("10–13"), v.cookies[preferredAgeCookie])

	rec = v.do(http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.Equal(t, "10–13", doc.Find(`.age-picker input[checked]`).AttrOr("value", ""))

	rec = v.do(http.MethodPost, "/explore", url.Values{"age": {"99+"}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHeaderFragmentTracksScroll(t *testing.T) {
	srv := newTestRouter(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frag/header?y=240&sec=programs:-300:200&sec=events:200:900", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	assert.True(t, doc.Find("#site-header").HasClass("scrolled"))
	assert.Equal(t, "#programs", doc.Find(`#site-header nav a.active`).AttrOr("href", ""))
}

func TestSiteBaseURLFollowsForwardedScheme(t *testing.T) {
	newTestRouter(t)
	assert.Equal(t, "https://curiosity.example.org", siteBaseURL(httptest.NewRequest(http.MethodGet, "/", nil)))

	appCfg.Site.BaseURL = ""
	req := httptest.NewRequest(http.MethodGet, "http://kids.local/events/1/ticket.png", nil)
	assert.Equal(t, "http://kids.local", siteBaseURL(req))
	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://kids.local", siteBaseURL(req))
	assert.Equal(t, "https://kids.local/events/1/ticket.png", absoluteURL(req))
}

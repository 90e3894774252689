package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/curiositycreators/website/internal/handlers"
	mw "github.com/curiositycreators/website/internal/middleware"
	"github.com/curiositycreators/website/internal/notify"
	"github.com/curiositycreators/website/internal/seo"
)

const preferredAgeCookie = "preferredAgeFilter"

func translator(lang string) handlers.Translator {
	return func(key string) string { return i18nBundle.T(lang, key) }
}

func isHTMX(r *http.Request) bool { return mw.IsHTMX(r.Context()) }

// message localizes a flash code, falling back to the built-in English text.
func message(lang, code string) string {
	key := "toast." + code
	if v := i18nBundle.T(lang, key); v != key {
		return v
	}
	return notify.Message(code)
}

// respondToast delivers a localized toast: htmx requests get HX-Trigger, others a
// redirect to target carrying the flash code.
func respondToast(w http.ResponseWriter, r *http.Request, code string, ok bool, target string) {
	if !isHTMX(r) {
		notify.Respond(w, r, false, code, ok, target)
		return
	}
	level := notify.Success
	if !ok {
		level = notify.Error
	}
	notify.Trigger(w, notify.Toast{Level: level, Message: message(mw.Lang(r), code)})
}

// flashToast turns ?ok= / ?error= into a localized toast for the page.
func flashToast(r *http.Request) *notify.Toast {
	t := notify.FromQuery(r.URL.Query())
	if t == nil {
		return nil
	}
	code := r.URL.Query().Get("error")
	if code == "" {
		code = r.URL.Query().Get("ok")
	}
	t.Message = message(mw.Lang(r), code)
	return t
}

// siteBaseURL prefers the configured base URL and otherwise derives one from the request.
func siteBaseURL(r *http.Request) string {
	if base := appCfg.Site.BaseURL; base != "" {
		return base
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func absoluteURL(r *http.Request) string {
	return siteBaseURL(r) + r.URL.Path
}

func buildAlternates(r *http.Request) []seo.Alternate {
	canonical := absoluteURL(r)
	out := make([]seo.Alternate, 0, len(i18nBundle.Supported())+1)
	for _, l := range i18nBundle.Supported() {
		out = append(out, seo.Alternate{Href: canonical + "?hl=" + url.QueryEscape(l), Hreflang: l})
	}
	out = append(out, seo.Alternate{Href: canonical, Hreflang: "x-default"})
	return out
}

func siteName() string {
	if appCfg.Site.Name != "" {
		return appCfg.Site.Name
	}
	return "Curiosity Creators"
}

// preferredAge reads the hero's remembered age range.
func preferredAge(r *http.Request) string {
	c, err := r.Cookie(preferredAgeCookie)
	if err != nil {
		return handlers.AllAges
	}
	if v, err := url.QueryUnescape(c.Value); err == nil {
		return v
	}
	return handlers.AllAges
}

package handlers

import (
	"github.com/curiositycreators/website/internal/nav"
	"github.com/curiositycreators/website/internal/notify"
	"github.com/curiositycreators/website/internal/seo"
)

// Translator returns the localized text for an i18n key.
type Translator func(key string) string

// PageData is the shared layout view model.
type PageData struct {
	Title     string
	Lang      string
	SEO       seo.Meta
	Analytics Analytics

	Path          string
	CSRFToken     string
	ReducedMotion bool
	Header        HeaderView
	Locales       []LocaleLink
	// Toast is a flash carried over a redirect.
	Toast *notify.Toast
}

// HeaderView is the sticky header: nav items plus scroll-derived state.
type HeaderView struct {
	Lang      string
	CSRFToken string
	Nav       []nav.RenderedItem
	Scrolled  bool
	Active    string
	Donate    QuickDonateForm
}

// BuildHeader renders the header for a scroll state.
func BuildHeader(lang, csrf string, st nav.State) HeaderView {
	return HeaderView{
		Lang:      lang,
		CSRFToken: csrf,
		Nav:       nav.Build(st.Active),
		Scrolled:  st.Scrolled,
		Active:    st.Active,
		Donate:    NewQuickDonateForm(lang, csrf, "header"),
	}
}

// LocaleLink switches the page language.
type LocaleLink struct {
	Lang    string
	Label   string
	Href    string
	Current bool
}

// BuildLocaleLinks lists the supported languages with the current one marked.
func BuildLocaleLinks(current string, supported []string, tr Translator) []LocaleLink {
	out := make([]LocaleLink, 0, len(supported))
	for _, l := range supported {
		out = append(out, LocaleLink{
			Lang:    l,
			Label:   tr("locale." + l),
			Href:    "/?hl=" + l,
			Current: l == current,
		})
	}
	return out
}

package main

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/catalog"
	"github.com/curiositycreators/website/internal/handlers"
	mw "github.com/curiositycreators/website/internal/middleware"
	"github.com/curiositycreators/website/internal/nav"
	"github.com/curiositycreators/website/internal/notify"
	"github.com/curiositycreators/website/internal/seo"
)

// HomeHandler renders the landing page.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	viewer := mw.ViewerID(r)
	tr := translator(lang)

	filter, err := catalog.ParseFilter(r.URL.Query())
	if err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	hero := handlers.BuildHero(lang, csrf, preferredAge(r), tr)
	hero.VideoURL = appCfg.Site.VideoURL
	events := catalogStore.Events(viewer)
	vm := handlers.HomeData{
		PageData: handlers.PageData{
			Title:         tr("home.title"),
			Lang:          lang,
			Analytics:     handlers.AnalyticsFromConfig(appCfg.Analytics),
			Path:          r.URL.Path,
			CSRFToken:     csrf,
			ReducedMotion: mw.ReducedMotion(r.Context()),
			Header:        handlers.BuildHeader(lang, csrf, nav.ParseState(r.URL.Query())),
			Locales:       handlers.BuildLocaleLinks(lang, i18nBundle.Supported(), tr),
			Toast:         flashToast(r),
		},
		Hero:     hero,
		Programs: handlers.BuildPrograms(lang, csrf, catalogStore.Programs(viewer), filter, tr),
		Events:   handlers.BuildEvents(lang, csrf, events, siteName()),
		Impact:   buildImpactView(r),
		Support:  handlers.BuildSupport(lang, csrf, tr),
		Footer:   handlers.BuildFooter(lang, csrf, time.Now().Year()),
	}

	brand := siteName()
	vm.SEO.Title = vm.Title + " | " + brand
	vm.SEO.Description = tr("home.description")
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = brand
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.Twitter.Card = "summary_large_image"
	vm.SEO.Alternates = buildAlternates(r)
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.JSON(seo.Organization(brand, appCfg.Site.BaseURL, "", vm.SEO.Description, nil)),
		seo.JSON(seo.WebSite(brand, appCfg.Site.BaseURL)),
	)
	for _, e := range vm.Events.Events {
		vm.SEO.JSONLD = append(vm.SEO.JSONLD, e.JSONLD)
	}

	render(w, r, vm)
}

// HeaderFrag re-renders the header bar for the reported scroll position.
func HeaderFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	view := handlers.BuildHeader(lang, mw.CSRFToken(r), nav.ParseState(r.URL.Query()))
	renderTemplate(w, r, http.StatusOK, "frag_header", view)
}

// ExploreHandler remembers the hero age preference and sends the visitor to the programs.
func ExploreHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	age := r.PostFormValue("age")
	if age == "" {
		age = handlers.AllAges
	}
	if age != handlers.AllAges && !catalog.ValidAgeRange(age) {
		mw.WriteError(w, r, http.StatusBadRequest, fmt.Errorf("%w: age %q", catalog.ErrInvalidFilter, age).Error())
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     preferredAgeCookie,
		Value:    url.QueryEscape(age),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
	mw.L(r).Info("explore preference saved", zap.String("age", age))

	if isHTMX(r) {
		respondToast(w, r, "explore", true, "/#programs")
		notify.TriggerEvent(w, "scroll-to", map[string]string{"target": "programs"})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondToast(w, r, "explore", true, "/#programs")
}

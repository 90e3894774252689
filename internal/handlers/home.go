package handlers

import "github.com/curiositycreators/website/internal/catalog"

// HomeData is the view model for the single landing page.
type HomeData struct {
	PageData

	Hero     HeroView
	Programs ProgramsView
	Events   EventsView
	Impact   ImpactView
	Support  SupportView
	Footer   FooterView
}

// HeroView is the banner with the age picker and quick donate.
type HeroView struct {
	Lang      string
	CSRFToken string
	AgeRanges []AgeOption
	Donate    QuickDonateForm
	// VideoURL is the embeddable story video; empty hides the link.
	VideoURL string
}

// AgeOption is one hero age-range button.
type AgeOption struct {
	Value    string
	Label    string
	Selected bool
}

// AllAges is the hero picker value meaning no preference.
const AllAges = "all"

// BuildHero marks preferred as the selected age range. Unknown values select AllAges.
func BuildHero(lang, csrf, preferred string, tr Translator) HeroView {
	if preferred != AllAges && !catalog.ValidAgeRange(preferred) {
		preferred = AllAges
	}
	opts := []AgeOption{{Value: AllAges, Label: tr("hero.ages.all"), Selected: preferred == AllAges}}
	for _, a := range catalog.AgeRangeOptions {
		opts = append(opts, AgeOption{Value: a, Label: a + " " + tr("hero.ages.years"), Selected: preferred == a})
	}
	return HeroView{
		Lang:      lang,
		CSRFToken: csrf,
		AgeRanges: opts,
		Donate:    NewQuickDonateForm(lang, csrf, "hero"),
	}
}

// FooterView is the footer with its newsletter signup.
type FooterView struct {
	Lang       string
	Year       int
	Newsletter NewsletterForm
	Programs   []FooterLink
}

// FooterLink is a program shortcut in the footer.
type FooterLink struct {
	Label string
	Href  string
}

// BuildFooter lists one filter shortcut per topic.
func BuildFooter(lang, csrf string, year int) FooterView {
	links := make([]FooterLink, 0, len(catalog.TopicOptions))
	for _, t := range catalog.TopicOptions {
		f, _ := catalog.NewFilter().SetTopics(t)
		links = append(links, FooterLink{Label: t, Href: "/?" + f.Query().Encode() + "#programs"})
	}
	return FooterView{
		Lang:       lang,
		Year:       year,
		Newsletter: NewFooterNewsletterForm(lang, csrf),
		Programs:   links,
	}
}

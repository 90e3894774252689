package handlers

import (
	"html/template"
	"strconv"

	"github.com/curiositycreators/website/internal/carousel"
	"github.com/curiositycreators/website/internal/cms"
	"github.com/curiositycreators/website/internal/countup"
	"github.com/curiositycreators/website/internal/impact"
)

// MetricView is one KPI tile.
type MetricView struct {
	Key         string
	Label       string
	Description string
	Target      int
	Prefix      string
	Suffix      string
	// Display is the final formatted value; the live stream counts up to it.
	Display string
}

// SlideView is one testimonial.
type SlideView struct {
	Index    int
	Name     string
	Role     string
	Quote    string
	Location string
	Initials string
}

// DotView is a carousel pager dot.
type DotView struct {
	Index  int
	Label  string
	Active bool
	URL    string
}

// CarouselView is the testimonial slider.
type CarouselView struct {
	Lang          string
	CSRFToken     string
	Current       SlideView
	Index         int
	Count         int
	Playing       bool
	ReducedMotion bool
	Dots          []DotView
}

// StoryView is the featured student story.
type StoryView struct {
	Slug    string
	Title   string
	Summary string
	Role    string
	Image   string
	Body    template.HTML
}

// ImpactView is the whole impact section.
type ImpactView struct {
	Lang          string
	CSRFToken     string
	ReducedMotion bool
	Metrics       []MetricView
	Carousel      CarouselView
	Story         *StoryView
	Partners      []impact.Partner
	// Unavailable swaps the section for a retry prompt.
	Unavailable bool
}

// BuildMetrics formats every KPI for lang.
func BuildMetrics(lang string, metrics []impact.Metric) []MetricView {
	out := make([]MetricView, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, MetricView{
			Key:         m.Key,
			Label:       m.Label,
			Description: m.Description,
			Target:      m.Value,
			Prefix:      m.Prefix,
			Suffix:      m.Suffix,
			Display:     countup.Format(m.Value, m.Prefix, m.Suffix, lang),
		})
	}
	return out
}

// BuildCarousel renders the slide selected by st.
func BuildCarousel(lang, csrf string, testimonials []impact.Testimonial, st carousel.State, tr Translator) CarouselView {
	v := CarouselView{
		Lang:          lang,
		CSRFToken:     csrf,
		Index:         st.Index,
		Count:         len(testimonials),
		Playing:       st.Playing,
		ReducedMotion: st.ReducedMotion,
	}
	if len(testimonials) == 0 {
		return v
	}
	idx := st.Index
	if idx < 0 || idx >= len(testimonials) {
		idx = 0
	}
	t := testimonials[idx]
	v.Current = SlideView{
		Index:    idx,
		Name:     t.Name,
		Role:     t.Role,
		Quote:    t.Quote,
		Location: t.Location,
		Initials: initials(t.Name),
	}
	for i := range testimonials {
		v.Dots = append(v.Dots, DotView{
			Index:  i,
			Label:  tr("impact.testimonials.goto") + " " + strconv.Itoa(i+1),
			Active: i == idx,
			URL:    "/impact/testimonials/goto/" + strconv.Itoa(i),
		})
	}
	return v
}

// BuildStory renders the featured story body.
func BuildStory(page cms.ContentPage) (*StoryView, error) {
	body, err := page.HTML()
	if err != nil {
		return nil, err
	}
	return &StoryView{
		Slug:    page.Slug,
		Title:   page.Title,
		Summary: page.Summary,
		Role:    page.Role,
		Image:   page.Image,
		Body:    body,
	}, nil
}

func initials(name string) string {
	out := make([]rune, 0, 2)
	start := true
	for _, r := range name {
		if r == ' ' {
			start = true
			continue
		}
		if start && len(out) < 2 && r != '.' {
			out = append(out, r)
		}
		start = false
	}
	return string(out)
}

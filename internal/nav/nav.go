package nav

import (
	"net/url"
	"strconv"
	"strings"
)

// ScrolledThreshold is the scroll offset past which the header turns solid.
const ScrolledThreshold = 10

// Probe is the viewport offset used to pick the active section.
const Probe = 100

// Item represents a top-level navigation item pointing at a page section.
type Item struct {
	Section  string // element id, e.g. "programs"
	LabelKey string // i18n key, e.g. "nav.programs"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	Section  string
	LabelKey string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Section: "programs", LabelKey: "nav.programs"},
	{Section: "events", LabelKey: "nav.events"},
	{Section: "impact", LabelKey: "nav.impact"},
	{Section: "get-involved", LabelKey: "nav.get_involved"},
	{Section: "about", LabelKey: "nav.about"},
}

// Build renders navigation items with the active section marked.
func Build(active string) []RenderedItem {
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     "#" + it.Section,
			Section:  it.Section,
			LabelKey: it.LabelKey,
			Active:   it.Section == active,
		})
	}
	return items
}

// Known reports whether section is a navigation target.
func Known(section string) bool {
	for _, it := range Main {
		if it.Section == section {
			return true
		}
	}
	return false
}

// Bounds is a section's viewport-relative top and bottom.
type Bounds struct {
	Section string
	Top     float64
	Bottom  float64
}

// ActiveSection returns the first navigation section, in nav order, whose bounds span
// the probe line. It returns "" when none does.
func ActiveSection(bounds []Bounds, probe float64) string {
	byID := make(map[string]Bounds, len(bounds))
	for _, b := range bounds {
		byID[b.Section] = b
	}
	for _, it := range Main {
		b, ok := byID[it.Section]
		if !ok {
			continue
		}
		if b.Top <= probe && b.Bottom >= probe {
			return it.Section
		}
	}
	return ""
}

// Scrolled reports whether the page has scrolled past the header threshold.
func Scrolled(y float64) bool {
	return y > ScrolledThreshold
}

// State is the header's scroll-derived state.
type State struct {
	Scrolled bool
	Active   string
}

// ParseState reads the header state from query parameters:
// y=<scrollY> and repeated sec=<id>:<top>:<bottom>. An explicit active=<id> wins
// when no bounds are supplied.
func ParseState(q url.Values) State {
	y, _ := strconv.ParseFloat(strings.TrimSpace(q.Get("y")), 64)
	st := State{Scrolled: Scrolled(y)}

	var bounds []Bounds
	for _, raw := range q["sec"] {
		parts := strings.Split(raw, ":")
		if len(parts) != 3 {
			continue
		}
		top, err1 := strconv.ParseFloat(parts[1], 64)
		bottom, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		bounds = append(bounds, Bounds{Section: parts[0], Top: top, Bottom: bottom})
	}
	if len(bounds) > 0 {
		st.Active = ActiveSection(bounds, Probe)
	} else if active := strings.TrimSpace(q.Get("active")); Known(active) {
		st.Active = active
	}
	return st
}

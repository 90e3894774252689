package handlers

import (
	"html/template"
	"net/url"

	"github.com/curiositycreators/website/internal/catalog"
	"github.com/curiositycreators/website/internal/cms"
	"github.com/curiositycreators/website/internal/format"
	"github.com/curiositycreators/website/internal/seo"
)

// FilterChip is a toggle link carrying the filter state it leads to.
type FilterChip struct {
	Value    string
	Label    string
	Selected bool
	Href     string // full page URL, works without JS
	FragURL  string // htmx fragment URL
}

// ProgramCard is one program in the grid.
type ProgramCard struct {
	ID          string
	Name        string
	Description string
	AgeRange    string
	Duration    string
	Thumbnail   string
	Topics      []string
	Format      string
	FormatLabel string
	Schedule    string
	Registered  bool
	DetailURL   string
	RegisterURL string
	Lang        string
	CSRFToken   string
}

// ProgramDetail is the program dialog.
type ProgramDetail struct {
	ProgramCard
	FullDescription template.HTML
	Outcomes        []string
	Instructor      string
	Pricing         string
	JSONLD          string
}

// ProgramsView is the filter sidebar plus the grid.
type ProgramsView struct {
	Lang        string
	CSRFToken   string
	Query       string
	PushURL     string
	AgeChips    []FilterChip
	TopicChips  []FilterChip
	FormatChips []FilterChip
	Programs    []ProgramCard
	Total       int
	Filtered    bool
	ClearHref   string
	ClearFrag   string
}

// Empty reports whether the filter hides every program.
func (v ProgramsView) Empty() bool { return len(v.Programs) == 0 }

// BuildPrograms renders the grid for programs already projected for the viewer.
func BuildPrograms(lang, csrf string, programs []catalog.Program, f catalog.Filter, tr Translator) ProgramsView {
	visible := catalog.VisiblePrograms(programs, f)
	v := ProgramsView{
		Lang:      lang,
		CSRFToken: csrf,
		Query:     f.Query().Encode(),
		PushURL:   pageURL(f, ""),
		Total:     len(programs),
		Filtered:  !f.Empty(),
		ClearHref: pageURL(catalog.NewFilter(), "programs"),
		ClearFrag: fragURL(catalog.NewFilter()),
	}
	for _, a := range catalog.AgeRangeOptions {
		next, _ := f.ToggleAgeRange(a)
		v.AgeChips = append(v.AgeChips, chip(a, a, f.HasAgeRange(a), next))
	}
	for _, t := range catalog.TopicOptions {
		next, _ := f.ToggleTopic(t)
		v.TopicChips = append(v.TopicChips, chip(t, tr("topic."+t), f.HasTopic(t), next))
	}
	for _, fm := range catalog.FormatOptions {
		next, _ := f.SetFormat(fm)
		v.FormatChips = append(v.FormatChips, chip(string(fm), tr("format."+string(fm)), f.Format() == fm, next))
	}
	for _, p := range visible {
		v.Programs = append(v.Programs, BuildProgramCard(lang, csrf, p, tr))
	}
	return v
}

// BuildProgramCard renders a single card.
func BuildProgramCard(lang, csrf string, p catalog.Program, tr Translator) ProgramCard {
	return ProgramCard{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		AgeRange:    p.AgeRange,
		Duration:    p.Duration,
		Thumbnail:   p.Thumbnail,
		Topics:      p.Topics,
		Format:      string(p.Format),
		FormatLabel: tr("format." + string(p.Format)),
		Schedule:    p.Schedule,
		Registered:  p.Registered,
		DetailURL:   "/programs/" + url.PathEscape(p.ID),
		RegisterURL: "/programs/" + url.PathEscape(p.ID) + "/register",
		Lang:        lang,
		CSRFToken:   csrf,
	}
}

// BuildProgramDetail renders the dialog, including the markdown description.
func BuildProgramDetail(lang, csrf string, p catalog.Program, provider string, tr Translator) (ProgramDetail, error) {
	body, err := cms.Render(p.FullDescription)
	if err != nil {
		return ProgramDetail{}, err
	}
	return ProgramDetail{
		ProgramCard:     BuildProgramCard(lang, csrf, p, tr),
		FullDescription: body,
		Outcomes:        p.Outcomes,
		Instructor:      p.Instructor,
		Pricing:         p.Pricing,
		JSONLD:          seo.JSON(seo.Course(p.Name, p.Description, provider)),
	}, nil
}

// EventCard is one upcoming event.
type EventCard struct {
	ID          string
	Title       string
	Date        string
	ISODate     string
	Time        string
	Location    string
	Capacity    int
	Registered  int
	SeatsLeft   int
	FillPercent int
	Full        bool
	RSVPed      bool
	RSVPURL     string
	TicketURL   string
	JSONLD      string
	Lang        string
	CSRFToken   string
}

// EventsView is the events column.
type EventsView struct {
	Lang      string
	CSRFToken string
	Events    []EventCard
	// Live enables the server-sent update stream.
	Live bool
}

// BuildEvents renders events already projected for the viewer.
func BuildEvents(lang, csrf string, events []catalog.Event, organizer string) EventsView {
	v := EventsView{Lang: lang, CSRFToken: csrf, Live: true}
	for _, e := range events {
		v.Events = append(v.Events, BuildEventCard(lang, csrf, e, organizer))
	}
	return v
}

// BuildEventCard renders a single event card.
func BuildEventCard(lang, csrf string, e catalog.Event, organizer string) EventCard {
	fill := 100
	if e.Capacity > 0 {
		fill = e.Registered * 100 / e.Capacity
	}
	base := "/events/" + url.PathEscape(e.ID)
	return EventCard{
		ID:          e.ID,
		Title:       e.Title,
		Date:        format.FmtISODate(e.Date, lang),
		ISODate:     e.Date,
		Time:        e.Time,
		Location:    e.Location,
		Capacity:    e.Capacity,
		Registered:  e.Registered,
		SeatsLeft:   e.SeatsLeft(),
		FillPercent: fill,
		Full:        e.Full(),
		RSVPed:      e.RSVPed,
		RSVPURL:     base + "/rsvp",
		TicketURL:   base + "/ticket.png",
		JSONLD: seo.JSON(seo.Event(seo.EventInput{
			Name:          e.Title,
			StartDate:     e.Date,
			Location:      e.Location,
			Organizer:     organizer,
			RemainingSeat: e.SeatsLeft(),
		})),
		Lang:      lang,
		CSRFToken: csrf,
	}
}

// RSVPFormView is the guardian details dialog for one event.
type RSVPFormView struct {
	Lang       string
	CSRFToken  string
	Event      EventCard
	ParentName string
	Email      string
	ChildAge   string
	Notes      string
	AgeRanges  []string
	Errors     map[string]string
}

func chip(value, label string, selected bool, next catalog.Filter) FilterChip {
	return FilterChip{
		Value:    value,
		Label:    label,
		Selected: selected,
		Href:     pageURL(next, "programs"),
		FragURL:  fragURL(next),
	}
}

func pageURL(f catalog.Filter, anchor string) string {
	u := "/"
	if q := f.Query().Encode(); q != "" {
		u += "?" + q
	}
	if anchor != "" {
		u += "#" + anchor
	}
	return u
}

func fragURL(f catalog.Filter) string {
	u := "/frag/programs"
	if q := f.Query().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

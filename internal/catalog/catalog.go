package catalog

import (
	"errors"
	"slices"
)

// Format is the delivery format of a program. FormatAll is only valid inside a Filter.
type Format string

const (
	FormatAll      Format = "all"
	FormatInPerson Format = "in-person"
	FormatOnline   Format = "online"
	FormatHybrid   Format = "hybrid"
)

// AgeRangeOptions lists the age ranges in display order.
var AgeRangeOptions = []string{"3–5", "6–9", "10–13", "14+"}

// TopicOptions lists the topics in display order.
var TopicOptions = []string{"Coding", "Robotics", "Science", "Math", "Maker"}

// FormatOptions lists the selectable filter formats in display order.
var FormatOptions = []Format{FormatAll, FormatInPerson, FormatOnline, FormatHybrid}

var (
	ErrProgramNotFound  = errors.New("catalog: program not found")
	ErrEventNotFound    = errors.New("catalog: event not found")
	ErrCapacityExceeded = errors.New("catalog: event at capacity")
	ErrInvalidFilter    = errors.New("catalog: invalid filter value")
	ErrNoViewer         = errors.New("catalog: missing viewer")
)

// Program is a recurring course offered by the organization.
type Program struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	FullDescription string   `yaml:"full_description"`
	AgeRange        string   `yaml:"age_range"`
	Duration        string   `yaml:"duration"`
	Thumbnail       string   `yaml:"thumbnail"`
	Topics          []string `yaml:"topics"`
	Format          Format   `yaml:"format"`
	Schedule        string   `yaml:"schedule"`
	Outcomes        []string `yaml:"outcomes"`
	Instructor      string   `yaml:"instructor"`
	Pricing         string   `yaml:"pricing"`

	// Registered is projected per viewer by the Store.
	Registered bool `yaml:"-"`
}

// Event is a one-off gathering with limited capacity.
type Event struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Date       string `yaml:"date"` // YYYY-MM-DD
	Time       string `yaml:"time"`
	Location   string `yaml:"location"`
	Capacity   int    `yaml:"capacity"`
	Registered int    `yaml:"registered"`

	// RSVPed is projected per viewer by the Store.
	RSVPed bool `yaml:"-"`
}

// Full reports whether no seats remain.
func (e Event) Full() bool { return e.Registered >= e.Capacity }

// SeatsLeft returns the remaining capacity, never negative.
func (e Event) SeatsLeft() int {
	if e.Full() {
		return 0
	}
	return e.Capacity - e.Registered
}

// ValidAgeRange reports whether v is one of AgeRangeOptions.
func ValidAgeRange(v string) bool { return slices.Contains(AgeRangeOptions, v) }

// ValidTopic reports whether v is one of TopicOptions.
func ValidTopic(v string) bool { return slices.Contains(TopicOptions, v) }

// ValidFormat reports whether f is a filter format. Programs must not use FormatAll.
func ValidFormat(f Format) bool { return slices.Contains(FormatOptions, f) }

func cloneProgram(p Program) Program {
	cp := p
	cp.Topics = slices.Clone(p.Topics)
	cp.Outcomes = slices.Clone(p.Outcomes)
	return cp
}

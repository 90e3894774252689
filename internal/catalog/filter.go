package catalog

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Query parameter names used to carry a Filter in URLs.
const (
	QueryAge    = "age"
	QueryTopic  = "topic"
	QueryFormat = "format"
)

// Filter selects the visible subset of programs. Empty sets and FormatAll match everything.
// The zero value is not usable as-is for format; use NewFilter.
type Filter struct {
	ageRanges []string
	topics    []string
	format    Format
}

// NewFilter returns a filter that matches every program.
func NewFilter() Filter {
	return Filter{format: FormatAll}
}

// AgeRanges returns the selected age ranges in option order.
func (f Filter) AgeRanges() []string { return slices.Clone(f.ageRanges) }

// Topics returns the selected topics in option order.
func (f Filter) Topics() []string { return slices.Clone(f.topics) }

// Format returns the selected format.
func (f Filter) Format() Format {
	if f.format == "" {
		return FormatAll
	}
	return f.format
}

// Empty reports whether the filter matches the full catalog.
func (f Filter) Empty() bool {
	return len(f.ageRanges) == 0 && len(f.topics) == 0 && f.Format() == FormatAll
}

// HasAgeRange reports whether v is selected.
func (f Filter) HasAgeRange(v string) bool { return slices.Contains(f.ageRanges, v) }

// HasTopic reports whether v is selected.
func (f Filter) HasTopic(v string) bool { return slices.Contains(f.topics, v) }

// SetAgeRanges replaces the age range selection.
func (f Filter) SetAgeRanges(values ...string) (Filter, error) {
	set, err := normalizeSet(values, AgeRangeOptions, "age range")
	if err != nil {
		return f, err
	}
	f.ageRanges = set
	return f, nil
}

// SetTopics replaces the topic selection.
func (f Filter) SetTopics(values ...string) (Filter, error) {
	set, err := normalizeSet(values, TopicOptions, "topic")
	if err != nil {
		return f, err
	}
	f.topics = set
	return f, nil
}

// SetFormat replaces the format selection.
func (f Filter) SetFormat(format Format) (Filter, error) {
	if !ValidFormat(format) {
		return f, fmt.Errorf("%w: format %q", ErrInvalidFilter, format)
	}
	f.format = format
	return f, nil
}

// ToggleAgeRange adds v when absent and removes it when present.
func (f Filter) ToggleAgeRange(v string) (Filter, error) {
	if !ValidAgeRange(v) {
		return f, fmt.Errorf("%w: age range %q", ErrInvalidFilter, v)
	}
	return f.SetAgeRanges(toggle(f.ageRanges, v)...)
}

// ToggleTopic adds v when absent and removes it when present.
func (f Filter) ToggleTopic(v string) (Filter, error) {
	if !ValidTopic(v) {
		return f, fmt.Errorf("%w: topic %q", ErrInvalidFilter, v)
	}
	return f.SetTopics(toggle(f.topics, v)...)
}

// Equal reports whether both filters select the same values.
func (f Filter) Equal(o Filter) bool {
	return slices.Equal(f.ageRanges, o.ageRanges) &&
		slices.Equal(f.topics, o.topics) &&
		f.Format() == o.Format()
}

// Matches applies the three visibility predicates to p.
func (f Filter) Matches(p Program) bool {
	if len(f.ageRanges) > 0 && !slices.Contains(f.ageRanges, p.AgeRange) {
		return false
	}
	if len(f.topics) > 0 && !slices.ContainsFunc(p.Topics, f.HasTopic) {
		return false
	}
	if format := f.Format(); format != FormatAll && p.Format != format {
		return false
	}
	return true
}

// Query encodes the filter as URL values. An empty filter encodes to no values.
func (f Filter) Query() url.Values {
	q := url.Values{}
	for _, a := range f.ageRanges {
		q.Add(QueryAge, a)
	}
	for _, t := range f.topics {
		q.Add(QueryTopic, t)
	}
	if format := f.Format(); format != FormatAll {
		q.Set(QueryFormat, string(format))
	}
	return q
}

// ParseFilter reads a filter from URL values. Unknown values are rejected with ErrInvalidFilter.
func ParseFilter(q url.Values) (Filter, error) {
	f := NewFilter()
	var err error
	if f, err = f.SetAgeRanges(nonEmpty(q[QueryAge])...); err != nil {
		return NewFilter(), err
	}
	if f, err = f.SetTopics(nonEmpty(q[QueryTopic])...); err != nil {
		return NewFilter(), err
	}
	if raw := strings.TrimSpace(q.Get(QueryFormat)); raw != "" {
		if f, err = f.SetFormat(Format(strings.ToLower(raw))); err != nil {
			return NewFilter(), err
		}
	}
	return f, nil
}

// VisiblePrograms returns the programs matched by f in their original order.
func VisiblePrograms(programs []Program, f Filter) []Program {
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// normalizeSet validates values against options and returns them deduplicated in option order.
func normalizeSet(values, options []string, label string) ([]string, error) {
	for _, v := range values {
		if !slices.Contains(options, v) {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidFilter, label, v)
		}
	}
	var out []string
	for _, opt := range options {
		if slices.Contains(values, opt) {
			out = append(out, opt)
		}
	}
	return out, nil
}

func toggle(set []string, v string) []string {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

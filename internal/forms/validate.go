package forms

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError carries per-field messages. It never leaves the request that produced it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "forms: invalid input (" + strings.Join(parts, "; ") + ")"
}

// Field returns the message for name, if any.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// validator accumulates the first failure per field.
type validator struct {
	fields map[string]string
}

func (v *validator) fail(field, msg string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func (v *validator) required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		v.fail(field, msg)
		return false
	}
	return true
}

func (v *validator) minLen(field, value string, n int, msg string) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		v.fail(field, msg)
	}
}

func (v *validator) email(field, value string) {
	if !ValidEmail(value) {
		v.fail(field, "Please enter a valid email address")
	}
}

func (v *validator) oneOf(field, value string, options []string, msg string) {
	for _, o := range options {
		if value == o {
			return
		}
	}
	v.fail(field, msg)
}

// ValidEmail reports whether s looks like name@domain.tld after trimming.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ParseAmount parses a positive amount. A leading "$" and thousands commas are accepted.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

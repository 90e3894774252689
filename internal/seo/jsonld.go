package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns an NGO schema for the site operator.
func Organization(name, url, logoURL, description string, sameAs []string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "NGO",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	if description != "" {
		m["description"] = description
	}
	if len(sameAs) > 0 {
		m["sameAs"] = sameAs
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	return m
}

// EventInput carries what the Event schema needs.
type EventInput struct {
	Name          string
	StartDate     string // ISO date
	Location      string
	URL           string
	Organizer     string
	RemainingSeat int
}

// Event returns a free-admission Event schema.
func Event(in EventInput) map[string]any {
	availability := "https://schema.org/InStock"
	if in.RemainingSeat <= 0 {
		availability = "https://schema.org/SoldOut"
	}
	m := map[string]any{
		"@context":            "https://schema.org",
		"@type":               "Event",
		"name":                in.Name,
		"startDate":           in.StartDate,
		"eventStatus":         "https://schema.org/EventScheduled",
		"eventAttendanceMode": "https://schema.org/OfflineEventAttendanceMode",
		"location": map[string]any{
			"@type": "Place",
			"name":  in.Location,
		},
		"offers": map[string]any{
			"@type":         "Offer",
			"price":         "0",
			"priceCurrency": "USD",
			"availability":  availability,
		},
	}
	if in.URL != "" {
		m["url"] = in.URL
	}
	if in.Organizer != "" {
		m["organizer"] = map[string]any{"@type": "Organization", "name": in.Organizer}
	}
	return m
}

// Course returns a minimal Course schema for an educational program.
func Course(name, description, provider string) map[string]any {
	m := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Course",
		"name":        name,
		"description": description,
	}
	if provider != "" {
		m["provider"] = map[string]any{"@type": "Organization", "name": provider}
	}
	return m
}

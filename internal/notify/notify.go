// Package notify carries user-facing toast notifications to htmx clients via HX-Trigger
// and to plain clients via redirect query flashes.
package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Level is the toast tone.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

const triggerHeader = "HX-Trigger"

// Toast is a transient notification.
type Toast struct {
	Level   Level  `json:"tone"`
	Message string `json:"message"`
}

// Trigger merges a toast event into the HX-Trigger header. Other events already set on
// the header are preserved.
func Trigger(w http.ResponseWriter, t Toast) {
	TriggerEvent(w, "toast", t)
}

// TriggerEvent merges an arbitrary named event into the HX-Trigger header.
func TriggerEvent(w http.ResponseWriter, name string, detail any) {
	events := map[string]any{}
	if existing := strings.TrimSpace(w.Header().Get(triggerHeader)); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			// A bare event name list; keep the names.
			for _, n := range strings.Split(existing, ",") {
				if n = strings.TrimSpace(n); n != "" {
					events[n] = nil
				}
			}
		}
	}
	events[name] = detail
	raw, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set(triggerHeader, string(raw))
}

var messages = map[string]string{
	"registered":          "Registration successful! You'll receive a confirmation email shortly.",
	"already_registered":  "You're already registered for this program.",
	"rsvp_confirmed":      "RSVP confirmed! See you at the event.",
	"already_rsvped":      "You've already RSVPed to this event.",
	"event_full":          "This event is at capacity. Please try another event.",
	"donated":             "Thank you for your generous donation!",
	"donation_failed":     "Payment failed. Please try again.",
	"sponsorship_sent":    "Partnership inquiry sent! We'll contact you within 2 business days.",
	"subscribed":          "Welcome! You've been added to our newsletter.",
	"footer_subscribed":   "Thank you for subscribing to our newsletter!",
	"subscribe_failed":    "Failed to subscribe. Please try again.",
	"volunteer_received":  "Thank you for volunteering! We'll be in touch soon.",
	"explore":             "Navigating to programs...",
	"bookmarked":          "Story bookmarked for later reading",
	"submission_failed":   "Something went wrong. Please try again.",
	"submission_inflight": "Your previous submission is still being processed.",
}

// Message returns the text for a flash code, or the code itself when unknown.
func Message(code string) string {
	if t, ok := messages[strings.ToLower(strings.TrimSpace(code))]; ok {
		return t
	}
	return code
}

// FromQuery builds a toast from ?ok= or ?error=. It returns nil when neither is set.
func FromQuery(q url.Values) *Toast {
	if code := strings.TrimSpace(q.Get("error")); code != "" {
		return &Toast{Level: Error, Message: Message(code)}
	}
	if code := strings.TrimSpace(q.Get("ok")); code != "" {
		return &Toast{Level: Success, Message: Message(code)}
	}
	return nil
}

// RedirectURL appends a flash code to target. ok selects the ?ok= or ?error= key.
func RedirectURL(target, code string, ok bool) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Del("ok")
	q.Del("error")
	key := "error"
	if ok {
		key = "ok"
	}
	q.Set(key, code)
	u.RawQuery = q.Encode()
	return u.String()
}

// Respond delivers a toast after a mutation. htmx requests receive it as a trigger on the
// current response; others are redirected to target with a flash code.
func Respond(w http.ResponseWriter, r *http.Request, htmx bool, code string, ok bool, target string) {
	level := Success
	if !ok {
		level = Error
	}
	if htmx {
		Trigger(w, Toast{Level: level, Message: Message(code)})
		return
	}
	http.Redirect(w, r, RedirectURL(target, code, ok), http.StatusSeeOther)
}

func (t Toast) String() string {
	return fmt.Sprintf("[%s] %s", t.Level, t.Message)
}

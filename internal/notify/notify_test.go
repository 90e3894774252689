package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTriggerMergesEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("HX-Trigger", "events:changed")
	Trigger(rec, Toast{Level: Success, Message: "Saved"})

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &got))
	require.Contains(t, got, "events:changed")
	require.JSONEq(t, `{"tone":"success","message":"Saved"}`, string(got["toast"]))

	TriggerEvent(rec, "carousel:moved", map[string]int{"index": 2})
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &got))
	require.Len(t, got, 3)
}

func TestFromQuery(t *testing.T) {
	require.Nil(t, FromQuery(url.Values{}))

	toast := FromQuery(url.Values{"ok": {"registered"}})
	require.Equal(t, &Toast{Level: Success, Message: "Registration successful! You'll receive a confirmation email shortly."}, toast)

	toast = FromQuery(url.Values{"ok": {"registered"}, "error": {"event_full"}})
	require.Equal(t, Error, toast.Level)
	require.Equal(t, "This event is at capacity. Please try another event.", toast.Message)

	require.Equal(t, "custom text", FromQuery(url.Values{"error": {"custom text"}}).Message)
}

func TestRespond(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/events/1/rsvp", nil)

	rec := httptest.NewRecorder()
	Respond(rec, req, true, "rsvp_confirmed", true, "/#events")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("HX-Trigger"), "RSVP confirmed")

	rec = httptest.NewRecorder()
	Respond(rec, req, false, "event_full", false, "/?topic=Coding#events")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "event_full", loc.Query().Get("error"))
	require.Equal(t, "Coding", loc.Query().Get("topic"))
	require.Equal(t, "events", loc.Fragment)
}

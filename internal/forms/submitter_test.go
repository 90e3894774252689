package forms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// gatedSender blocks each send until released.
type gatedSender struct {
	release chan struct{}
	err     error
}

func (g *gatedSender) Send(ctx context.Context, sub Submission) (Receipt, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
	if g.err != nil {
		return Receipt{}, g.err
	}
	return Receipt{ID: "r-1", Kind: sub.Kind}, nil
}

func TestSubmitterRejectsDuplicateInFlight(t *testing.T) {
	sender := &gatedSender{release: make(chan struct{})}
	s := NewSubmitter(sender)
	key := Key("viewer-1", KindDonation)
	ctx := context.Background()

	task, err := s.Submit(ctx, key, Submission{Kind: KindDonation})
	require.NoError(t, err)
	require.True(t, s.Pending(key))

	_, err = s.Submit(ctx, key, Submission{Kind: KindDonation})
	require.ErrorIs(t, err, ErrInFlight)

	other, err := s.Submit(ctx, Key("viewer-2", KindDonation), Submission{Kind: KindDonation})
	require.NoError(t, err)

	close(sender.release)
	receipt, err := task.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "r-1", receipt.ID)
	require.False(t, s.Pending(key))

	_, err = other.Wait(ctx)
	require.NoError(t, err)

	again, err := s.Submit(ctx, key, Submission{Kind: KindDonation})
	require.NoError(t, err)
	_, err = again.Wait(ctx)
	require.NoError(t, err)
}

func TestSubmitterFailureReleasesGate(t *testing.T) {
	sender := &gatedSender{release: make(chan struct{}), err: ErrSimulatedNetworkFailure}
	close(sender.release)
	s := NewSubmitter(sender)
	key := Key("v", KindNewsletter)

	task, err := s.Submit(context.Background(), key, Submission{Kind: KindNewsletter})
	require.NoError(t, err)
	_, err = task.Wait(context.Background())
	require.ErrorIs(t, err, ErrSimulatedNetworkFailure)
	require.False(t, s.Pending(key))
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	sender := &gatedSender{release: make(chan struct{})}
	s := NewSubmitter(sender)
	ctx, cancel := context.WithCancel(context.Background())

	task, err := s.Submit(ctx, "k", Submission{Kind: KindVolunteer})
	require.NoError(t, err)
	cancel()

	_, err = task.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(sender.release)
	receipt, err := task.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, KindVolunteer, receipt.Kind)
}

func TestSimulatedUsesKindLatency(t *testing.T) {
	var waited time.Duration
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	sim := &Simulated{
		Latency: Latencies,
		Wait: func(_ context.Context, d time.Duration) error {
			waited = d
			return nil
		},
		Now: func() time.Time { return now },
	}

	receipt, err := sim.Send(context.Background(), Submission{Kind: KindDonation})
	require.NoError(t, err)
	require.Equal(t, 2000*time.Millisecond, waited)
	require.Equal(t, KindDonation, receipt.Kind)
	require.Equal(t, now, receipt.SubmittedAt)
	require.Len(t, receipt.ID, 26)

	sim.Fail = func(Submission) error { return ErrSimulatedNetworkFailure }
	_, err = sim.Send(context.Background(), Submission{Kind: KindSponsorship})
	require.ErrorIs(t, err, ErrSimulatedNetworkFailure)
	require.Equal(t, 1500*time.Millisecond, waited)
}

func TestSimulatedHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulated().Send(ctx, Submission{Kind: KindDonation})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestHTTPSenderPostsJSON(t *testing.T) {
	var gotPath, gotKey string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get(idempotencyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"srv-42","submittedAt":"2025-03-15T10:00:00Z"}`))
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL+"/", nil)
	receipt, err := sender.Send(context.Background(), Volunteer{
		Name: "Sam", Email: "sam@x.io", Availability: "weekends", Skills: "Go",
	}.Submission())
	require.NoError(t, err)
	require.Equal(t, "/outreach/volunteer", gotPath)
	require.NotEmpty(t, gotKey)
	require.Equal(t, "Sam", body["name"])
	require.Equal(t, "srv-42", receipt.ID)
	require.Equal(t, 2025, receipt.SubmittedAt.Year())
}

func TestHTTPSenderReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSender(srv.URL, nil).Send(context.Background(), Submission{Kind: KindNewsletter, Payload: map[string]any{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestHTTPSenderFallsBackWithoutBaseURL(t *testing.T) {
	fallback := &Simulated{Wait: func(context.Context, time.Duration) error { return nil }}
	receipt, err := NewHTTPSender("", fallback).Send(context.Background(), Submission{Kind: KindQuickDonation})
	require.NoError(t, err)
	require.Equal(t, KindQuickDonation, receipt.Kind)
}

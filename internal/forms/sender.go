package forms

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	defaultTimeout    = 8 * time.Second
	idempotencyHeader = "Idempotency-Key"
)

// ErrSimulatedNetworkFailure is what a Simulated sender reports when its failure hook fires.
var ErrSimulatedNetworkFailure = errors.New("forms: simulated network failure")

// Receipt acknowledges a delivered submission.
type Receipt struct {
	ID          string
	Kind        Kind
	SubmittedAt time.Time
}

// Sender delivers a submission somewhere.
type Sender interface {
	Send(ctx context.Context, sub Submission) (Receipt, error)
}

// Simulated waits the configured latency for the kind and then succeeds, unless Fail says otherwise.
type Simulated struct {
	Latency map[Kind]time.Duration
	// Fail, when set, decides whether a submission fails after its latency.
	Fail func(Submission) error
	// Wait replaces the real timer in tests.
	Wait func(ctx context.Context, d time.Duration) error
	Now  func() time.Time
}

// NewSimulated returns a Simulated sender using the default latencies.
func NewSimulated() *Simulated {
	return &Simulated{Latency: Latencies}
}

// Send implements Sender.
func (s *Simulated) Send(ctx context.Context, sub Submission) (Receipt, error) {
	wait := s.Wait
	if wait == nil {
		wait = sleep
	}
	if err := wait(ctx, s.Latency[sub.Kind]); err != nil {
		return Receipt{}, err
	}
	if s.Fail != nil {
		if err := s.Fail(sub); err != nil {
			return Receipt{}, err
		}
	}
	return newReceipt(sub.Kind, s.now()), nil
}

func (s *Simulated) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HTTPSender posts submissions as JSON to an outreach endpoint. With an empty base URL it
// falls back to the simulated sender.
type HTTPSender struct {
	baseURL  string
	http     *http.Client
	fallback Sender
}

// NewHTTPSender constructs an HTTPSender.
func NewHTTPSender(baseURL string, fallback Sender) *HTTPSender {
	if fallback == nil {
		fallback = NewSimulated()
	}
	return &HTTPSender{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		fallback: fallback,
	}
}

// Send implements Sender.
func (c *HTTPSender) Send(ctx context.Context, sub Submission) (Receipt, error) {
	if c == nil || c.baseURL == "" {
		return c.fallbackSender().Send(ctx, sub)
	}

	endpoint, err := url.JoinPath(c.baseURL, "outreach", string(sub.Kind))
	if err != nil {
		return Receipt{}, err
	}
	payload, err := json.Marshal(sub.Payload)
	if err != nil {
		return Receipt{}, err
	}

	key := newReceipt(sub.Kind, time.Now()).ID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(idempotencyHeader, key)

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Receipt{}, fmt.Errorf("forms: %s status %d: %s", sub.Kind, resp.StatusCode, drainError(resp.Body))
	}

	var body receiptPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return Receipt{}, err
	}
	return body.toReceipt(sub.Kind, key), nil
}

func (c *HTTPSender) fallbackSender() Sender {
	if c == nil || c.fallback == nil {
		return NewSimulated()
	}
	return c.fallback
}

type receiptPayload struct {
	ID          string `json:"id"`
	SubmittedAt string `json:"submittedAt"`
}

func (p receiptPayload) toReceipt(kind Kind, key string) Receipt {
	r := Receipt{ID: strings.TrimSpace(p.ID), Kind: kind, SubmittedAt: time.Now().UTC()}
	if r.ID == "" {
		r.ID = key
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(p.SubmittedAt)); err == nil {
		r.SubmittedAt = ts
	}
	return r
}

func newReceipt(kind Kind, at time.Time) Receipt {
	id := ulid.MustNew(ulid.Timestamp(at), rand.Reader)
	return Receipt{ID: strings.ToLower(id.String()), Kind: kind, SubmittedAt: at.UTC()}
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

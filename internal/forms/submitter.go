package forms

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/curiositycreators/website/internal/forms"

// ErrInFlight rejects a second submission of the same form by the same viewer.
var ErrInFlight = errors.New("forms: submission already in flight")

const defaultSubmitTimeout = 30 * time.Second

// Submitter runs submissions as tasks and allows one in-flight submission per key.
type Submitter struct {
	sender  Sender
	logger  *zap.Logger
	tracer  trace.Tracer
	counter metric.Int64Counter
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithLogger sets the submitter logger.
func WithLogger(l *zap.Logger) SubmitterOption {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMeter overrides the global meter provider.
func WithMeter(m metric.Meter) SubmitterOption {
	return func(s *Submitter) {
		if m == nil {
			return
		}
		if c, err := m.Int64Counter("forms.submissions", metric.WithDescription("Form submissions by kind and outcome")); err == nil {
			s.counter = c
		}
	}
}

// WithTimeout bounds how long a single submission may run.
func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSubmitter constructs a Submitter around sender.
func NewSubmitter(sender Sender, opts ...SubmitterOption) *Submitter {
	if sender == nil {
		sender = NewSimulated()
	}
	s := &Submitter{
		sender:   sender,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
		timeout:  defaultSubmitTimeout,
		inflight: make(map[string]struct{}),
	}
	WithMeter(otel.GetMeterProvider().Meter(instrumentationName))(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key scopes the in-flight gate to one viewer and one form.
func Key(viewer string, kind Kind) string {
	return viewer + "|" + string(kind)
}

// Submit starts delivering sub. The task outlives ctx cancellation so an abandoned
// request still completes; only the submit timeout bounds it.
func (s *Submitter) Submit(ctx context.Context, key string, sub Submission) (*Task[Receipt], error) {
	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		s.record(ctx, sub.Kind, "rejected")
		return nil, ErrInFlight
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	return Run(runCtx, func(ctx context.Context) (Receipt, error) {
		defer s.release(key)

		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		ctx, span := s.tracer.Start(ctx, "forms.submit", trace.WithAttributes(attribute.String("form.kind", string(sub.Kind))))
		defer span.End()

		start := time.Now()
		receipt, err := s.sender.Send(ctx, sub)
		elapsed := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.record(ctx, sub.Kind, "failed")
			s.logger.Warn("form submission failed", zap.String("kind", string(sub.Kind)), zap.Duration("elapsed", elapsed), zap.Error(err))
			return Receipt{}, err
		}
		s.record(ctx, sub.Kind, "ok")
		s.logger.Info("form submitted", zap.String("kind", string(sub.Kind)), zap.String("receipt", receipt.ID), zap.Duration("elapsed", elapsed))
		return receipt, nil
	}), nil
}

// Pending reports whether key has a submission in flight.
func (s *Submitter) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[key]
	return ok
}

func (s *Submitter) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func (s *Submitter) record(ctx context.Context, kind Kind, outcome string) {
	if s.counter == nil {
		return
	}
	s.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("form.kind", string(kind)),
		attribute.String("outcome", outcome),
	))
}

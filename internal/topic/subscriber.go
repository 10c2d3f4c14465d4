// Package topic retrieves bounded slices of an asset's event history
// from its ledger topic.
package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gabipgz/haras-project/internal/apperr"
	"github.com/gabipgz/haras-project/internal/asset"
	"github.com/gabipgz/haras-project/internal/ledger"
)

// Retry policy defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Subscriber collects historical topic messages under a deadline. Each
// Collect call is independent; concurrent retrievals on different
// topics never serialize behind each other.
type Subscriber struct {
	ledger      ledger.Client
	maxAttempts int
	baseDelay   time.Duration
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithRetryPolicy overrides the attempt budget and backoff base.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(s *Subscriber) {
		s.maxAttempts = maxAttempts
		s.baseDelay = baseDelay
	}
}

// NewSubscriber creates a Subscriber over the given ledger client.
func NewSubscriber(c ledger.Client, opts ...Option) *Subscriber {
	s := &Subscriber{
		ledger:      c,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collect subscribes to topicID from start and returns once it has
// decoded messageCount events or timeout elapses, whichever comes
// first. The topic has no end-of-stream marker, so the deadline is how
// "no more history" is distinguished from "still waiting": a partial or
// empty result at the deadline is success, not an error.
//
// Subscription setup and mid-stream transport failures are retried with
// linear backoff (baseDelay * attempt). Events accumulated before a
// mid-stream failure survive the retry; the stream resumes past the
// last consensus timestamp seen so nothing is delivered twice.
// ErrSubscription is returned only when every attempt failed with
// nothing collected before the deadline.
func (s *Subscriber) Collect(ctx context.Context, topicID string, start time.Time,
	messageCount int, timeout time.Duration) ([]asset.Event, error) {

	events := make([]asset.Event, 0, messageCount)
	if messageCount <= 0 {
		return events, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.baseDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return events, nil
			}
		}

		more, err := s.stream(ctx, topicID, start, messageCount, &events)
		if err == nil {
			return events, nil
		}
		lastErr = err
		slog.Warn("topic stream attempt failed",
			slog.String("topic_id", topicID),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
		if !more.IsZero() {
			// Resume just past what we already have.
			start = more
		}
	}

	if len(events) > 0 {
		return events, nil
	}
	return nil, fmt.Errorf("%w: topic %s after %d attempts: %v",
		apperr.ErrSubscription, topicID, s.maxAttempts, lastErr)
}

// stream runs one subscription attempt, appending decoded events to
// *events. It returns a nil error on a terminal success (count reached
// or deadline), or the setup/transport error plus the resume point for
// the next attempt. The subscription is always released before return.
func (s *Subscriber) stream(ctx context.Context, topicID string, start time.Time,
	messageCount int, events *[]asset.Event) (resume time.Time, err error) {

	msgCh := make(chan ledger.Message, messageCount)
	errCh := make(chan error, 1)
	done := make(chan struct{})

	sub, err := s.ledger.Subscribe(ctx, topicID, start,
		func(m ledger.Message) {
			select {
			case msgCh <- m:
			case <-done:
			}
		},
		func(streamErr error) {
			select {
			case errCh <- streamErr:
			case <-done:
			}
		})
	if err != nil {
		return time.Time{}, err
	}
	defer close(done)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return time.Time{}, nil

		case m := <-msgCh:
			resume = m.ConsensusTime.Add(time.Nanosecond)
			var ev asset.Event
			if decodeErr := json.Unmarshal(m.Contents, &ev); decodeErr != nil {
				// One bad message must not lose the rest.
				slog.Warn("dropping undecodable topic message",
					slog.String("topic_id", topicID),
					slog.Uint64("sequence", m.Sequence),
					slog.String("error", decodeErr.Error()))
				continue
			}
			*events = append(*events, ev)
			if len(*events) >= messageCount {
				return resume, nil
			}

		case streamErr := <-errCh:
			return resume, streamErr
		}
	}
}

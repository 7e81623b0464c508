// Package audit journals the outcome of console actions.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outcome is how a console action ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"  // the Promotion Service or transport failed
	OutcomeRejected Outcome = "rejected" // user input error, nothing was sent
	OutcomeStale    Outcome = "stale"    // completion discarded, a newer action was issued
)

// Entry is one journalled console action.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Session     string    `json:"session"`
	Action      string    `json:"action"`
	PromotionID string    `json:"promotionId,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	Message     string    `json:"message,omitempty"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// NewEntry creates an entry with a fresh id and the current time.
func NewEntry(session, action, promotionID string, outcome Outcome, message string) Entry {
	return Entry{
		ID:          uuid.New(),
		Session:     session,
		Action:      action,
		PromotionID: promotionID,
		Outcome:     outcome,
		Message:     message,
		RecordedAt:  time.Now().UTC(),
	}
}

// Recorder stores journal entries.
type Recorder interface {
	// Record stores one entry.
	Record(ctx context.Context, entry Entry) error

	// Close releases resources held by the recorder.
	Close() error
}

type nopRecorder struct{}

// NewNopRecorder returns a recorder that drops every entry.
func NewNopRecorder() Recorder {
	return nopRecorder{}
}

func (nopRecorder) Record(context.Context, Entry) error { return nil }

func (nopRecorder) Close() error { return nil }

// fanout records every entry to all of its recorders.
type fanout struct {
	recorders []Recorder
	logger    zerolog.Logger
}

// NewFanout returns a recorder writing to each of recorders in turn. A
// failing recorder does not stop the others; the errors are joined.
func NewFanout(logger zerolog.Logger, recorders ...Recorder) Recorder {
	if len(recorders) == 0 {
		return NewNopRecorder()
	}
	if len(recorders) == 1 {
		return recorders[0]
	}
	return &fanout{
		recorders: recorders,
		logger:    logger.With().Str("component", "audit-fanout").Logger(),
	}
}

// Record implements Recorder.
func (f *fanout) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, r := range f.recorders {
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		f.logger.Warn().
			Int("failed", len(errs)).
			Int("recorders", len(f.recorders)).
			Str("entry_id", entry.ID.String()).
			Msg("audit entry not recorded everywhere")
	}
	return errors.Join(errs...)
}

// Close implements Recorder.
func (f *fanout) Close() error {
	var errs []error
	for _, r := range f.recorders {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

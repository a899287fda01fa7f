package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
)

// Decider picks an outcome for a displayed pair
type Decider interface {
	Decide(ctx context.Context, left, right *images.File) (pairing.Outcome, string, error)
}

// Runner drives a session to completion with a Decider
type Runner struct {
	Decider   Decider
	Source    images.Source
	Autosaver *results.Autosaver
	// MaxErrors stops the run after this many consecutive decision failures
	MaxErrors int
}

// Run records decisions until the session is exhausted or ctx is done. The
// log is flushed to the autosaver's writer on every exit path.
func (r *Runner) Run(ctx context.Context, sessionID string, session *pairing.Session) (err error) {
	defer func() {
		if r.Autosaver == nil {
			return
		}
		// the run context may already be cancelled; flush regardless
		if flushErr := r.Autosaver.Flush(context.WithoutCancel(ctx), sessionID, session.Export()); flushErr != nil {
			err = errors.Join(err, flushErr)
		}
	}()

	maxErrors := r.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 3
	}
	failures := 0

	for session.State() == pairing.StateAwaitingSelection {
		if err := ctx.Err(); err != nil {
			return err
		}

		pair, err := session.Current()
		if err != nil {
			return err
		}

		outcome, err := r.decide(ctx, pair)
		if err != nil {
			failures++
			slog.Warn("Judge failed on pair", "pair", pair.String(), "attempt", failures, "error", err)
			if failures >= maxErrors {
				return fmt.Errorf("giving up after %d consecutive failures: %w", failures, err)
			}
			continue
		}
		failures = 0

		if _, err := session.Record(outcome); err != nil {
			return err
		}

		completed, target := session.Progress()
		slog.Info("Recorded comparison", "session_id", sessionID, "pair", pair.String(), "outcome", outcome, "progress", fmt.Sprintf("%d/%d", completed, target))

		if r.Autosaver != nil {
			if _, err := r.Autosaver.Observe(ctx, sessionID, session.Export()); err != nil {
				slog.Error("Autosave failed", "session_id", sessionID, "error", err)
			}
		}
	}

	return nil
}

func (r *Runner) decide(ctx context.Context, pair pairing.Pair) (pairing.Outcome, error) {
	left, err := r.Source.Read(pair.Left)
	if err != nil {
		return "", err
	}
	right, err := r.Source.Read(pair.Right)
	if err != nil {
		return "", err
	}
	outcome, _, err := r.Decider.Decide(ctx, left, right)
	return outcome, err
}

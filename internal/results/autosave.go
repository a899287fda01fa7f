package results

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

// Autosaver writes a session's log every Every comparisons
type Autosaver struct {
	Every  int
	Writer Writer
}

// NewAutosaver creates an Autosaver. every <= 0 disables periodic saves.
func NewAutosaver(every int, w Writer) *Autosaver {
	return &Autosaver{Every: every, Writer: w}
}

// Due reports whether a log of n comparisons falls on the cadence
func (a *Autosaver) Due(n int) bool {
	return a.Every > 0 && n > 0 && n%a.Every == 0
}

// Observe saves the log when its length falls on the cadence
func (a *Autosaver) Observe(ctx context.Context, sessionID string, log []pairing.Comparison) (bool, error) {
	if a.Writer == nil || !a.Due(len(log)) {
		return false, nil
	}
	if err := a.Flush(ctx, sessionID, log); err != nil {
		return false, err
	}
	slog.Info("Saved comparisons", "session_id", sessionID, "count", len(log))
	return true, nil
}

// Flush saves the log unconditionally
func (a *Autosaver) Flush(ctx context.Context, sessionID string, log []pairing.Comparison) error {
	if a.Writer == nil || len(log) == 0 {
		return nil
	}
	if err := a.Writer.Write(ctx, sessionID, log); err != nil {
		return fmt.Errorf("failed to save comparisons for session %s: %w", sessionID, err)
	}
	return nil
}

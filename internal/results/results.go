package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

// Header is the column layout shared by every results format
var Header = []string{"left", "right", "outcome", "timestamp"}

// TimestampLayout is how timestamps are rendered in text formats
const TimestampLayout = time.RFC3339Nano

// Row is one persisted comparison
type Row struct {
	Left      string    `parquet:"left" json:"left"`
	Right     string    `parquet:"right" json:"right"`
	Outcome   string    `parquet:"outcome" json:"outcome"`
	Choice    string    `parquet:"choice" json:"choice"`
	Timestamp time.Time `parquet:"timestamp" json:"timestamp"`
}

// NewRow converts a comparison to its persisted form. Outcome holds the
// winning image (or "skip"), Choice holds the side that was picked.
func NewRow(c pairing.Comparison) Row {
	return Row{
		Left:      string(c.Left),
		Right:     string(c.Right),
		Outcome:   c.Winner(),
		Choice:    string(c.Outcome),
		Timestamp: c.Timestamp.UTC(),
	}
}

// Comparison converts a persisted row back to a comparison
func (r Row) Comparison() (pairing.Comparison, error) {
	choice := r.Choice
	if choice == "" {
		switch r.Outcome {
		case r.Left:
			choice = string(pairing.OutcomeLeft)
		case r.Right:
			choice = string(pairing.OutcomeRight)
		default:
			choice = r.Outcome
		}
	}
	outcome, err := pairing.ParseOutcome(choice)
	if err != nil {
		return pairing.Comparison{}, err
	}
	return pairing.Comparison{
		Left:      pairing.ImageID(r.Left),
		Right:     pairing.ImageID(r.Right),
		Outcome:   outcome,
		Timestamp: r.Timestamp,
	}, nil
}

// Rows converts a comparison log
func Rows(log []pairing.Comparison) []Row {
	rows := make([]Row, len(log))
	for i, c := range log {
		rows[i] = NewRow(c)
	}
	return rows
}

// Writer persists a snapshot of a session's comparison log. Writing the same
// snapshot twice leaves the same stored result.
type Writer interface {
	Write(ctx context.Context, sessionID string, log []pairing.Comparison) error
}

// MultiWriter writes to every writer and joins their errors
type MultiWriter []Writer

func (m MultiWriter) Write(ctx context.Context, sessionID string, log []pairing.Comparison) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, sessionID, log); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FileName returns the results file name for a session
func FileName(name, sessionID, ext string) string {
	if name == "" {
		name = "comparisons"
	}
	if sessionID == "" {
		return name + ext
	}
	return fmt.Sprintf("%s_%s%s", name, sessionID, ext)
}

// writeFileAtomic writes through a temp file in the same directory so a
// crash mid-write never leaves a truncated results file behind.
func writeFileAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move results into place: %w", err)
	}

	slog.Debug("Results file written", "path", path)
	return nil
}

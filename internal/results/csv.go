package results

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

// CSVWriter writes one CSV file per session
type CSVWriter struct {
	Dir  string
	Name string
}

// NewCSVWriter creates a CSVWriter
func NewCSVWriter(dir, name string) *CSVWriter {
	return &CSVWriter{Dir: dir, Name: name}
}

// Path returns the file a session is written to
func (w *CSVWriter) Path(sessionID string) string {
	return filepath.Join(w.Dir, FileName(w.Name, sessionID, ".csv"))
}

func (w *CSVWriter) Write(ctx context.Context, sessionID string, log []pairing.Comparison) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(w.Path(sessionID), func(f *os.File) error {
		return WriteCSV(f, log)
	})
}

// WriteCSV encodes a comparison log with a header row
func WriteCSV(out io.Writer, log []pairing.Comparison) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range Rows(log) {
		record := []string{row.Left, row.Right, row.Outcome, row.Timestamp.Format(TimestampLayout)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes rows written by WriteCSV
func ReadCSV(in io.Reader) ([]Row, error) {
	cr := csv.NewReader(in)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(Header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", i+2, len(Header), len(rec))
		}
		ts, err := time.Parse(TimestampLayout, rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid timestamp: %w", i+2, err)
		}
		rows = append(rows, Row{Left: rec[0], Right: rec[1], Outcome: rec[2], Timestamp: ts})
	}
	return rows, nil
}

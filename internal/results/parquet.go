package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/parquet-go/parquet-go"
)

// ParquetWriter writes one Parquet file per session
type ParquetWriter struct {
	Dir  string
	Name string
}

// NewParquetWriter creates a ParquetWriter
func NewParquetWriter(dir, name string) *ParquetWriter {
	return &ParquetWriter{Dir: dir, Name: name}
}

// Path returns the file a session is written to
func (w *ParquetWriter) Path(sessionID string) string {
	return filepath.Join(w.Dir, FileName(w.Name, sessionID, ".parquet"))
}

func (w *ParquetWriter) Write(ctx context.Context, sessionID string, log []pairing.Comparison) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(w.Path(sessionID), func(f *os.File) error {
		return WriteParquet(f, log)
	})
}

// WriteParquet encodes a comparison log as a Parquet file
func WriteParquet(out io.Writer, log []pairing.Comparison) error {
	writer := parquet.NewGenericWriter[Row](out)
	if _, err := writer.Write(Rows(log)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet loads the rows of a file written by WriteParquet
func ReadParquet(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, 0, pf.NumRows())
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return rows, nil
}

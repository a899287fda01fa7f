package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/spf13/cobra"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		sessionID string
		format    string
		output    string
		dbPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export comparison logs stored in SQLite",
		Long: `Lists the sessions stored in the study's SQLite database, or exports one
session's comparison log as CSV or Parquet.

Without --session, the stored sessions are listed.`,
		Example: `  # List stored sessions
  pairwise export

  # Export one session as Parquet
  pairwise export --session 5f0c... --format parquet --output results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := root.loadStudy()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = study.SQLitePath
			}
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("database %s: %w", dbPath, err)
			}

			store, err := results.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if sessionID == "" {
				return listSessions(cmd.Context(), cmd.OutOrStdout(), store)
			}

			log, err := store.Load(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			if len(log) == 0 {
				return fmt.Errorf("no comparisons stored for session %s", sessionID)
			}

			if output == "" {
				output = study.ResultsDir
			}
			var (
				writer results.Writer
				path   string
			)
			switch format {
			case "csv":
				w := results.NewCSVWriter(output, study.ResultsName)
				writer, path = w, w.Path(sessionID)
			case "parquet":
				w := results.NewParquetWriter(output, study.ResultsName)
				writer, path = w, w.Path(sessionID)
			default:
				return fmt.Errorf("unsupported export format: %s (use csv or parquet)", format)
			}

			if err := writer.Write(cmd.Context(), sessionID, log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d comparisons to %s\n", len(log), filepath.Clean(path))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to export")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format (csv, parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: results_dir)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default: sqlite_path)")

	return cmd
}

func listSessions(ctx context.Context, out io.Writer, store *results.SQLiteStore) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions stored")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tCOMPARISONS\tFIRST\tLAST")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.SessionID, s.Count, s.FirstAt.Format(time.RFC3339), s.LastAt.Format(time.RFC3339))
	}
	return w.Flush()
}

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/handlers"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/lehigh-university-libraries/pairwise/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string
	var plan planFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the comparison API server",
		Long: `Starts the pairwise HTTP API on the specified port.

Each rater creates a session with POST /api/sessions, fetches the current pair
with GET /api/sessions/{id}, and records decisions with
POST /api/sessions/{id}/record. Results are saved every autosave_every
comparisons and when a session is deleted or expires.`,
		Example: `  # Start server on default port 8888
  pairwise serve

  # Serve a pilot study with three repetitions per pair
  pairwise serve --config pilot.yaml --repetitions 3 --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := root.loadStudy()
			if err != nil {
				return err
			}
			if err := plan.apply(cmd, study); err != nil {
				return err
			}

			writers, closeResults, err := results.Open(study)
			if err != nil {
				return err
			}
			defer closeResults()

			store := storage.New(study.SessionTTL)
			handler := handlers.New(store, imageSource(study), results.NewAutosaver(study.AutosaveEvery, writers), study.Plan())
			// save whatever is still in memory on the way out
			defer store.Flush()

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Pairwise API available", "addr", addr, "url", "http://localhost"+addr, "images", study.ImageDir)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", envOr("PORT", "8888"), "Port to listen on")
	plan.register(cmd)

	return cmd
}

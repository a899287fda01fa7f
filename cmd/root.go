package cmd

import (
	"io"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/pairwise/internal/config"
	"github.com/lehigh-university-libraries/pairwise/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string

	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pairwise",
		Short: "Pairwise image preference studies",
		Long: `Pairwise shows raters pairs of images from a fixed set and records which
image they prefer, building a comparison log for ranking analysis
(Elo, Bradley-Terry) downstream.

Each unique pair is scheduled a fixed number of times in independently
shuffled rounds, and results are saved as CSV, Parquet or SQLite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			closer, err := logging.Setup(logging.Options{Level: opts.logLevel, File: opts.logFile})
			if err != nil {
				return err
			}
			opts.logCloser = closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logCloser != nil {
				_ = opts.logCloser.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "study.yaml", "Path to the study config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", envOr("LOG_FILE", ""), "Also write JSON logs to this rotating file")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRateCmd(opts))
	cmd.AddCommand(newJudgeCmd(opts))
	cmd.AddCommand(newPlanCmd(opts))
	cmd.AddCommand(newExportCmd(opts))

	return cmd
}

func (o *rootOptions) loadStudy() (*config.Study, error) {
	return config.Load(o.configPath)
}

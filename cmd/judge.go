package cmd

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pairwise/internal/judge"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/spf13/cobra"
)

func newJudgeCmd(root *rootOptions) *cobra.Command {
	var (
		provider  string
		model     string
		maxErrors int
		plan      planFlags
	)

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Run a comparison session with a vision model as the rater",
		Long: `Runs a full comparison session where a vision model picks the preferred
image of each pair. Both images and the study question are sent to the
provider, and the model's LEFT/RIGHT/SKIP answer is recorded.

Supported providers: ollama, openai, gemini.`,
		Example: `  # Judge with a local Ollama model
  pairwise judge --provider ollama --model llava:13b

  # Judge with OpenAI, one repetition per pair
  export OPENAI_API_KEY=sk-...
  pairwise judge --provider openai --repetitions 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := root.loadStudy()
			if err != nil {
				return err
			}
			if err := plan.apply(cmd, study); err != nil {
				return err
			}

			ids, source, err := listImages(study)
			if err != nil {
				return err
			}

			j, err := judge.New(provider, model, study.Question)
			if err != nil {
				return err
			}

			session, err := pairing.New(ids, study.Plan())
			if err != nil {
				return err
			}

			writers, closeResults, err := results.Open(study)
			if err != nil {
				return err
			}
			defer closeResults()

			sessionID := uuid.NewString()
			_, target := session.Progress()
			slog.Info("Starting judge session",
				"session_id", sessionID,
				"provider", provider,
				"model", j.Model,
				"images", len(ids),
				"target", target)

			runner := &judge.Runner{
				Decider:   j,
				Source:    source,
				Autosaver: results.NewAutosaver(study.AutosaveEvery, writers),
				MaxErrors: maxErrors,
			}
			runErr := runner.Run(cmd.Context(), sessionID, session)

			completed, _ := session.Progress()
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s: %d of %d comparisons recorded\n", sessionID, completed, target)
			printSummary(cmd.OutOrStdout(), results.Tally(session.Export()))

			return runErr
		},
	}

	cmd.Flags().StringVar(&provider, "provider", envOr("PAIRWISE_PROVIDER", "ollama"), "Vision model provider (ollama, openai, gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: provider's *_MODEL env var or built-in default)")
	cmd.Flags().IntVar(&maxErrors, "max-errors", 3, "Stop after this many consecutive provider failures")
	plan.register(cmd)

	return cmd
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pairwise/internal/config"
	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/spf13/cobra"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	leftColor  = color.New(color.FgBlue)
	rightColor = color.New(color.FgMagenta)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
)

func newRateCmd(root *rootOptions) *cobra.Command {
	var plan planFlags

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate image pairs interactively in the terminal",
		Long: `Runs a comparison session in the terminal. For each pair the image paths
are printed; answer l (left), r (right), s (skip) or q (quit).

Results are saved every autosave_every comparisons and again on exit,
including when the command is interrupted with Ctrl+C.`,
		Example: `  # Rate the images in ./images with the default study settings
  pairwise rate

  # Quick pilot: each pair once, stop after 20 comparisons
  pairwise rate --repetitions 1 --quota 20`,
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
			autosaver := results.NewAutosaver(study.AutosaveEvery, writers)
			return runRating(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), study, source, session, sessionID, autosaver)
		},
	}

	plan.register(cmd)

	return cmd
}

func runRating(ctx context.Context, in io.Reader, out io.Writer, study *config.Study, source *images.DirSource, session *pairing.Session, sessionID string, autosaver *results.Autosaver) (err error) {
	defer func() {
		if flushErr := autosaver.Flush(context.WithoutCancel(ctx), sessionID, session.Export()); flushErr != nil {
			err = errors.Join(err, flushErr)
		}
	}()

	titleColor.Fprintln(out, study.Title)
	fmt.Fprintln(out, study.Question)
	fmt.Fprintf(out, "Session: %s\n", sessionID)

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	answers := readLines(readCtx, in)
	for session.State() == pairing.StateAwaitingSelection {
		if err := ctx.Err(); err != nil {
			return err
		}

		pair, err := session.Current()
		if err != nil {
			return err
		}

		completed, target := session.Progress()
		fmt.Fprintf(out, "\nComparisons: %d/%d  Remaining pairs: %d\n", completed, target, session.Remaining())
		leftColor.Fprintf(out, "  LEFT:  %s\n", displayPath(source, pair.Left))
		rightColor.Fprintf(out, "  RIGHT: %s\n", displayPath(source, pair.Right))
		fmt.Fprint(out, "[l]eft / [r]ight / [s]kip / [q]uit > ")

		var line input
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line = <-answers:
		}
		if line.err != nil {
			return fmt.Errorf("failed to read answer: %w", line.err)
		}
		if line.eof {
			fmt.Fprintln(out)
			break
		}
		answer := strings.TrimSpace(line.text)
		if strings.EqualFold(answer, "q") || strings.EqualFold(answer, "quit") {
			break
		}

		outcome, err := pairing.ParseOutcome(answer)
		if err != nil {
			warnColor.Fprintf(out, "Please answer l, r, s or q\n")
			continue
		}
		if _, err := session.Record(outcome); err != nil {
			return err
		}

		saved, err := autosaver.Observe(ctx, sessionID, session.Export())
		if err != nil {
			warnColor.Fprintf(out, "Could not save results: %v\n", err)
		} else if saved {
			okColor.Fprintf(out, "Saved %d comparisons!\n", len(session.Export()))
		}
	}

	completed, target := session.Progress()
	if session.State() == pairing.StateExhausted {
		okColor.Fprintf(out, "\nCongratulations! You've completed all %d comparisons!\n", target)
	} else {
		fmt.Fprintf(out, "\nStopped after %d of %d comparisons.\n", completed, target)
	}
	printSummary(out, results.Tally(session.Export()))

	return nil
}

type input struct {
	text string
	eof  bool
	err  error
}

// readLines feeds lines from in to the returned channel so the rating loop
// can stop on cancellation while a read is pending.
func readLines(ctx context.Context, in io.Reader) <-chan input {
	lines := make(chan input)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- input{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case lines <- input{eof: true, err: scanner.Err()}:
		case <-ctx.Done():
		}
	}()
	return lines
}

func displayPath(source *images.DirSource, id pairing.ImageID) string {
	path, err := source.Path(id)
	if err != nil {
		return string(id)
	}
	return path
}

func printSummary(out io.Writer, summary results.Summary) {
	if summary.Comparisons == 0 {
		return
	}
	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "Comparison Summary")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Comparisons: %d (skipped %d)\n\n", summary.Comparisons, summary.Skips)
	for _, img := range summary.Images {
		fmt.Fprintf(out, "  %-30s wins %3d  losses %3d  skips %3d  win rate %6.2f%%\n",
			img.Image, img.Wins, img.Losses, img.Skips, img.WinRate*100)
	}
	fmt.Fprintln(out, "========================================")
}

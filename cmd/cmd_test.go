package cmd

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/config"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeImages(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1))))
		require.NoError(t, f.Close())
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	args = append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type ratingFixture struct {
	study   *config.Study
	session *pairing.Session
	writer  *results.CSVWriter
}

func newRatingFixture(t *testing.T) *ratingFixture {
	t.Helper()
	study := config.Default()
	study.ImageDir = writeImages(t, "a.png", "b.png", "c.png")
	study.Repetitions = 1

	ids, _, err := listImages(study)
	require.NoError(t, err)
	session, err := pairing.New(ids, study.Plan(), pairing.WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	return &ratingFixture{
		study:   study,
		session: session,
		writer:  results.NewCSVWriter(t.TempDir(), "comparisons"),
	}
}

func (f *ratingFixture) run(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	err := runRating(context.Background(), strings.NewReader(input), &out, f.study, imageSource(f.study), f.session, "s1", results.NewAutosaver(10, f.writer))
	require.NoError(t, err)
	return out.String()
}

func csvLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunRatingCompletesSession(t *testing.T) {
	f := newRatingFixture(t)

	out := f.run(t, "maybe\nl\nR\nskip\n")

	assert.Contains(t, out, "Please answer l, r, s or q")
	assert.Contains(t, out, "completed all 3 comparisons")
	assert.Contains(t, out, "Comparison Summary")
	assert.Equal(t, pairing.StateExhausted, f.session.State())
	assert.Len(t, csvLines(t, f.writer.Path("s1")), 4)
}

func TestRunRatingQuitFlushesPartialLog(t *testing.T) {
	f := newRatingFixture(t)

	out := f.run(t, "l\nq\n")

	assert.Contains(t, out, "Stopped after 1 of 3 comparisons")
	assert.Equal(t, pairing.StateAwaitingSelection, f.session.State())
	assert.Len(t, csvLines(t, f.writer.Path("s1")), 2)
}

func TestRunRatingEndOfInput(t *testing.T) {
	f := newRatingFixture(t)

	out := f.run(t, "")

	assert.Contains(t, out, "Stopped after 0 of 3 comparisons")
	assert.NoFileExists(t, f.writer.Path("s1"))
}

func TestPlanCommand(t *testing.T) {
	dir := writeImages(t, "a.png", "b.png", "c.png", "d.png")

	out, err := execute(t, "plan", "--images", dir, "--repetitions", "3", "--seed", "7", "--pairs")
	require.NoError(t, err)

	var got schedule
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, uint64(7), got.Seed)
	assert.Equal(t, 18, got.Total)
	assert.Len(t, got.Pairs, 18)
	require.Len(t, got.Exposure, 6)
	for _, e := range got.Exposure {
		assert.Equal(t, 3, e.Count, e.Pair)
	}

	again, err := execute(t, "plan", "--images", dir, "--repetitions", "3", "--seed", "7", "--pairs")
	require.NoError(t, err)
	assert.Equal(t, out, again, "a fixed seed reproduces the schedule")
}

func TestPlanCommandNeedsTwoImages(t *testing.T) {
	dir := writeImages(t, "a.png")

	_, err := execute(t, "plan", "--images", dir)
	assert.ErrorContains(t, err, "need at least 2")
}

func TestExportCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pairwise.db")
	store, err := results.OpenSQLite(dbPath)
	require.NoError(t, err)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Write(context.Background(), "s1", []pairing.Comparison{
		{Left: "a.png", Right: "b.png", Outcome: pairing.OutcomeLeft, Timestamp: t0},
		{Left: "b.png", Right: "c.png", Outcome: pairing.OutcomeSkip, Timestamp: t0.Add(time.Second)},
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "export", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "s1")

	outDir := t.TempDir()
	out, err = execute(t, "export", "--db", dbPath, "--session", "s1", "--format", "parquet", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 comparisons")

	rows, err := results.ReadParquet(filepath.Join(outDir, "comparisons_s1.parquet"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.png", rows[0].Outcome)

	_, err = execute(t, "export", "--db", dbPath, "--session", "missing")
	assert.ErrorContains(t, err, "no comparisons stored")

	_, err = execute(t, "export", "--db", dbPath, "--session", "s1", "--format", "xlsx", "-o", outDir)
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestRunRatingStopsOnCancelWhileWaiting(t *testing.T) {
	f := newRatingFixture(t)
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- runRating(ctx, in, &out, f.study, imageSource(f.study), f.session, "s1", results.NewAutosaver(10, f.writer))
	}()

	// each pipe write returns once the reader has taken it, and the reader only
	// asks for the third line after the rater has handled the first
	for _, answer := range []string{"l\n", "x\n", "x\n"} {
		_, err := io.WriteString(w, answer)
		require.NoError(t, err)
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("rating did not stop after cancellation")
	}
	assert.Len(t, f.session.Export(), 1)
	assert.Len(t, csvLines(t, f.writer.Path("s1")), 2, "the partial log is flushed on cancel")
}

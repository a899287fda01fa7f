package judge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/providers"
	"github.com/lehigh-university-libraries/pairwise/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		reply    string
		expected pairing.Outcome
	}{
		{"LEFT", pairing.OutcomeLeft},
		{"right", pairing.OutcomeRight},
		{"I would pick the Left image.", pairing.OutcomeLeft},
		{"**RIGHT**", pairing.OutcomeRight},
		{"SKIP", pairing.OutcomeSkip},
		{"Leftover thoughts aside: RIGHT", pairing.OutcomeRight},
		{"both are lovely", pairing.OutcomeSkip},
		{"", pairing.OutcomeSkip},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDecision(tt.reply))
		})
	}
}

type fakeProvider struct {
	reply string
	err   error
	calls []providers.Config
}

func (f *fakeProvider) Generate(_ context.Context, config providers.Config) (string, error) {
	f.calls = append(f.calls, config)
	return f.reply, f.err
}

func TestJudgeDecide(t *testing.T) {
	provider := &fakeProvider{reply: "RIGHT"}
	j := &Judge{Provider: provider, Model: "test-model", Question: "Which is sharper?"}

	left := &images.File{ID: "a.png", MIMEType: "image/png", Data: []byte("a")}
	right := &images.File{ID: "b.png", MIMEType: "image/jpeg", Data: []byte("b")}

	outcome, reply, err := j.Decide(context.Background(), left, right)
	require.NoError(t, err)
	assert.Equal(t, pairing.OutcomeRight, outcome)
	assert.Equal(t, "RIGHT", reply)

	require.Len(t, provider.calls, 1)
	call := provider.calls[0]
	assert.Equal(t, "test-model", call.Model)
	assert.Contains(t, call.Prompt, "Which is sharper?")
	require.Len(t, call.Images, 2)
	assert.Equal(t, []byte("a"), call.Images[0].Data)
	assert.Equal(t, "image/jpeg", call.Images[1].MIMEType)
}

func TestNewJudge(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "llava")

	j, err := New("ollama", "", "")
	require.NoError(t, err)
	assert.Equal(t, "llava", j.Model)

	j, err = New("openai", "gpt-4o-mini", "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", j.Model)

	_, err = New("bard", "", "")
	assert.Error(t, err)
}

type memorySource map[pairing.ImageID][]byte

func (m memorySource) List() ([]pairing.ImageID, error) {
	var ids []pairing.ImageID
	for id := range m {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m memorySource) Read(id pairing.ImageID) (*images.File, error) {
	data, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("no image %s", id)
	}
	return &images.File{ID: id, MIMEType: "image/png", Data: data}, nil
}

type alwaysLeft struct{ calls int }

func (a *alwaysLeft) Decide(context.Context, *images.File, *images.File) (pairing.Outcome, string, error) {
	a.calls++
	return pairing.OutcomeLeft, "LEFT", nil
}

type countingWriter struct{ writes []int }

func (w *countingWriter) Write(_ context.Context, _ string, log []pairing.Comparison) error {
	w.writes = append(w.writes, len(log))
	return nil
}

func TestRunnerCompletesSession(t *testing.T) {
	src := memorySource{"a": []byte("a"), "b": []byte("b"), "c": []byte("c")}
	session, err := pairing.New([]pairing.ImageID{"a", "b", "c"}, pairing.Plan{Repetitions: 2})
	require.NoError(t, err)

	decider := &alwaysLeft{}
	writer := &countingWriter{}
	runner := &Runner{Decider: decider, Source: src, Autosaver: results.NewAutosaver(4, writer)}

	require.NoError(t, runner.Run(context.Background(), "s1", session))

	assert.Equal(t, pairing.StateExhausted, session.State())
	assert.Equal(t, 6, decider.calls)
	for _, c := range session.Export() {
		assert.Equal(t, string(c.Left), c.Winner())
	}
	assert.Equal(t, []int{4, 6}, writer.writes)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	src := memorySource{"a": nil, "b": nil, "c": nil}
	session, err := pairing.New([]pairing.ImageID{"a", "b", "c"}, pairing.Plan{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{Decider: &alwaysLeft{}, Source: src}
	err = runner.Run(ctx, "s1", session)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, session.Export())
}

type failingDecider struct{}

func (failingDecider) Decide(context.Context, *images.File, *images.File) (pairing.Outcome, string, error) {
	return "", "", errors.New("model unavailable")
}

func TestRunnerGivesUpAfterRepeatedFailures(t *testing.T) {
	src := memorySource{"a": nil, "b": nil}
	session, err := pairing.New([]pairing.ImageID{"a", "b"}, pairing.Plan{})
	require.NoError(t, err)

	runner := &Runner{Decider: failingDecider{}, Source: src, MaxErrors: 2}
	err = runner.Run(context.Background(), "s1", session)
	assert.ErrorContains(t, err, "model unavailable")
	assert.Equal(t, pairing.StateAwaitingSelection, session.State())
}

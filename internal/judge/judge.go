package judge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/pairwise/internal/gemini"
	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/ollama"
	"github.com/lehigh-university-libraries/pairwise/internal/openai"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/lehigh-university-libraries/pairwise/internal/providers"
)

var decisionPattern = regexp.MustCompile(`\b(LEFT|RIGHT|SKIP)\b`)

// Judge asks a vision model which of two images it prefers
type Judge struct {
	Provider    providers.Provider
	Model       string
	Temperature float64
	Question    string
}

// New builds a judge for the named provider. An empty model falls back to
// the provider's *_MODEL environment variable, then a built-in default.
func New(provider, model, question string) (*Judge, error) {
	var p providers.Provider
	switch provider {
	case "ollama":
		p = ollama.New()
	case "openai":
		p = openai.New()
	case "gemini":
		p = gemini.New()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	if model == "" {
		model = defaultModel(provider)
	}

	return &Judge{
		Provider:    p,
		Model:       model,
		Temperature: 0.1,
		Question:    question,
	}, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	default:
		return ""
	}
}

func (j *Judge) prompt() string {
	question := j.Question
	if question == "" {
		question = "Which image do you prefer?"
	}
	return fmt.Sprintf(`You are taking part in a pairwise image preference study.
The first image is LEFT and the second image is RIGHT.

%s

Answer with exactly one word: LEFT, RIGHT, or SKIP if you cannot decide.`, question)
}

// Decide returns the model's outcome for the pair and its raw reply
func (j *Judge) Decide(ctx context.Context, left, right *images.File) (pairing.Outcome, string, error) {
	reply, err := j.Provider.Generate(ctx, providers.Config{
		Model:       j.Model,
		Temperature: j.Temperature,
		Prompt:      j.prompt(),
		Images: []providers.Image{
			{MIMEType: left.MIMEType, Data: left.Data},
			{MIMEType: right.MIMEType, Data: right.Data},
		},
	})
	if err != nil {
		return "", "", err
	}

	outcome := ParseDecision(reply)
	slog.Debug("Judge decided", "left", left.ID, "right", right.ID, "outcome", outcome, "reply", reply)
	return outcome, reply, nil
}

// ParseDecision takes the first LEFT, RIGHT or SKIP in a reply. Anything
// else counts as a skip.
func ParseDecision(reply string) pairing.Outcome {
	match := decisionPattern.FindString(strings.ToUpper(reply))
	if match == "" {
		return pairing.OutcomeSkip
	}
	outcome, err := pairing.ParseOutcome(match)
	if err != nil {
		return pairing.OutcomeSkip
	}
	return outcome
}

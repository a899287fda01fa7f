package pairing

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// ImageID names one of the candidate images
type ImageID string

// Pair is two distinct images in display order
type Pair struct {
	Left  ImageID `json:"left" yaml:"left"`
	Right ImageID `json:"right" yaml:"right"`
}

// Key returns the unordered identity of the pair
func (p Pair) Key() Pair {
	if p.Right < p.Left {
		return Pair{Left: p.Right, Right: p.Left}
	}
	return p
}

func (p Pair) String() string {
	return string(p.Left) + " vs " + string(p.Right)
}

// Outcome is the rater's decision for a displayed pair
type Outcome string

const (
	OutcomeLeft  Outcome = "left"
	OutcomeRight Outcome = "right"
	OutcomeSkip  Outcome = "skip"
)

// ParseOutcome accepts left/right/skip (any case) and the l/r/s shorthands
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return OutcomeLeft, nil
	case "right", "r":
		return OutcomeRight, nil
	case "skip", "s":
		return OutcomeSkip, nil
	default:
		return "", fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, s)
	}
}

func (o Outcome) valid() bool {
	return o == OutcomeLeft || o == OutcomeRight || o == OutcomeSkip
}

// Comparison is one logged decision for a shown pair
type Comparison struct {
	Left      ImageID   `json:"left"`
	Right     ImageID   `json:"right"`
	Outcome   Outcome   `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

// Winner returns the preferred image, or "skip"
func (c Comparison) Winner() string {
	switch c.Outcome {
	case OutcomeLeft:
		return string(c.Left)
	case OutcomeRight:
		return string(c.Right)
	default:
		return string(OutcomeSkip)
	}
}

// Pair returns the pair the comparison was recorded for
func (c Comparison) Pair() Pair {
	return Pair{Left: c.Left, Right: c.Right}
}

// MaxScheduleSize bounds the number of pairs a single schedule may hold
const MaxScheduleSize = 1_000_000

// Plan controls how a session's pool is scheduled
type Plan struct {
	// Repetitions is how many times each unique pair is scheduled. Zero means 1.
	Repetitions int `json:"repetitions" yaml:"repetitions"`
	// Limit truncates the schedule. Exposure is no longer balanced when it applies.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
	// Quota ends the session after this many comparisons.
	Quota int `json:"quota,omitempty" yaml:"quota,omitempty"`
	// RandomizeSides flips each scheduled pair with probability 1/2.
	RandomizeSides bool `json:"randomize_sides,omitempty" yaml:"randomize_sides,omitempty"`
}

func (p Plan) withDefaults() Plan {
	if p.Repetitions == 0 {
		p.Repetitions = 1
	}
	return p
}

func (p Plan) validate() error {
	if p.Repetitions < 1 {
		return fmt.Errorf("%w: repetitions must be at least 1, got %d", ErrInvalidInput, p.Repetitions)
	}
	if p.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidInput, p.Limit)
	}
	if p.Quota < 0 {
		return fmt.Errorf("%w: quota must not be negative, got %d", ErrInvalidInput, p.Quota)
	}
	return nil
}

// Distinct drops repeated identifiers, keeping the first occurrence
func Distinct(images []ImageID) []ImageID {
	seen := make(map[ImageID]struct{}, len(images))
	out := make([]ImageID, 0, len(images))
	for _, img := range images {
		if _, ok := seen[img]; ok {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
	}
	return out
}

// Combinations returns every unordered pair of images, in input order
func Combinations(images []ImageID) []Pair {
	n := len(images)
	if n < 2 {
		return nil
	}
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{Left: images[i], Right: images[j]})
		}
	}
	return pairs
}

// GeneratePairs schedules every unique pair plan.Repetitions times. Each
// round is an independent shuffle of the full combination set, so exposure
// stays balanced unless plan.Limit truncates the result.
func GeneratePairs(rng *rand.Rand, images []ImageID, plan Plan) ([]Pair, error) {
	plan = plan.withDefaults()
	if err := plan.validate(); err != nil {
		return nil, err
	}

	distinct := Distinct(images)
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 distinct images, got %d", ErrInvalidInput, len(distinct))
	}

	combos := Combinations(distinct)
	if plan.Repetitions > MaxScheduleSize/len(combos) {
		return nil, fmt.Errorf("%w: %d repetitions of %d pairs exceeds the %d pair schedule limit",
			ErrInvalidInput, plan.Repetitions, len(combos), MaxScheduleSize)
	}
	pairs := make([]Pair, 0, plan.Repetitions*len(combos))
	for range plan.Repetitions {
		rng.Shuffle(len(combos), func(i, j int) {
			combos[i], combos[j] = combos[j], combos[i]
		})
		for _, p := range combos {
			if plan.RandomizeSides && rng.IntN(2) == 1 {
				p = Pair{Left: p.Right, Right: p.Left}
			}
			pairs = append(pairs, p)
		}
	}

	if plan.Limit > 0 && plan.Limit < len(pairs) {
		pairs = pairs[:plan.Limit]
	}

	return pairs, nil
}

// Exposure counts how often each unordered pair occurs in a schedule
func Exposure(pairs []Pair) map[Pair]int {
	counts := make(map[Pair]int)
	for _, p := range pairs {
		counts[p.Key()]++
	}
	return counts
}

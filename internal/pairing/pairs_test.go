package pairing

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func ids(names ...string) []ImageID {
	out := make([]ImageID, len(names))
	for i, n := range names {
		out[i] = ImageID(n)
	}
	return out
}

func TestGeneratePairsBalancedExposure(t *testing.T) {
	tests := []struct {
		name        string
		images      []ImageID
		repetitions int
	}{
		{name: "two images once", images: ids("a", "b"), repetitions: 1},
		{name: "three images twice", images: ids("a", "b", "c"), repetitions: 2},
		{name: "nine images five times", images: ids("1", "2", "3", "4", "5", "6", "7", "8", "9"), repetitions: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := GeneratePairs(testRand(), tt.images, Plan{Repetitions: tt.repetitions})
			require.NoError(t, err)

			n := len(tt.images)
			unique := n * (n - 1) / 2
			assert.Len(t, pairs, tt.repetitions*unique)

			exposure := Exposure(pairs)
			assert.Len(t, exposure, unique)
			for pair, count := range exposure {
				assert.Equal(t, tt.repetitions, count, "pair %s", pair)
			}
			for _, p := range pairs {
				assert.NotEqual(t, p.Left, p.Right)
			}
		})
	}
}

func TestGeneratePairsThreeImages(t *testing.T) {
	pairs, err := GeneratePairs(testRand(), ids("a", "b", "c"), Plan{Repetitions: 1})
	require.NoError(t, err)

	keys := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.Key())
	}
	assert.ElementsMatch(t, []Pair{
		{Left: "a", Right: "b"},
		{Left: "a", Right: "c"},
		{Left: "b", Right: "c"},
	}, keys)
}

func TestGeneratePairsEachRoundIsComplete(t *testing.T) {
	images := ids("a", "b", "c", "d")
	pairs, err := GeneratePairs(testRand(), images, Plan{Repetitions: 3})
	require.NoError(t, err)

	round := len(Combinations(images))
	for r := 0; r < 3; r++ {
		exposure := Exposure(pairs[r*round : (r+1)*round])
		assert.Len(t, exposure, round, "round %d", r)
	}
}

func TestGeneratePairsLimit(t *testing.T) {
	images := ids("a", "b", "c", "d")

	pairs, err := GeneratePairs(testRand(), images, Plan{Repetitions: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, pairs, 5)

	pairs, err = GeneratePairs(testRand(), images, Plan{Repetitions: 2, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, pairs, 12)
}

func TestGeneratePairsRandomizeSides(t *testing.T) {
	images := ids("a", "b", "c", "d", "e", "f")
	pairs, err := GeneratePairs(testRand(), images, Plan{Repetitions: 4, RandomizeSides: true})
	require.NoError(t, err)

	flipped := 0
	for _, p := range pairs {
		if p != p.Key() {
			flipped++
		}
	}
	assert.Positive(t, flipped)
	assert.Less(t, flipped, len(pairs))

	for _, count := range Exposure(pairs) {
		assert.Equal(t, 4, count)
	}
}

func TestGeneratePairsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		images []ImageID
		plan   Plan
	}{
		{name: "no images", images: nil},
		{name: "one image", images: ids("a")},
		{name: "duplicates only", images: ids("a", "a", "a")},
		{name: "negative repetitions", images: ids("a", "b"), plan: Plan{Repetitions: -1}},
		{name: "negative limit", images: ids("a", "b"), plan: Plan{Limit: -3}},
		{name: "negative quota", images: ids("a", "b"), plan: Plan{Quota: -1}},
		{name: "repetitions overflow", images: ids("a", "b", "c"), plan: Plan{Repetitions: math.MaxInt / 2}},
		{name: "schedule too large", images: ids("a", "b", "c", "d", "e", "f", "g", "h", "i"), plan: Plan{Repetitions: 1_000_000_000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GeneratePairs(testRand(), tt.images, tt.plan)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGeneratePairsCollapsesDuplicates(t *testing.T) {
	pairs, err := GeneratePairs(testRand(), ids("a", "b", "a", "b"), Plan{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Left: "a", Right: "b"}, pairs[0].Key())
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		in       string
		expected Outcome
	}{
		{"left", OutcomeLeft},
		{"LEFT", OutcomeLeft},
		{"l", OutcomeLeft},
		{" right ", OutcomeRight},
		{"R", OutcomeRight},
		{"skip", OutcomeSkip},
		{"s", OutcomeSkip},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutcome(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseOutcome("both")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComparisonWinner(t *testing.T) {
	c := Comparison{Left: "a.png", Right: "b.png"}

	c.Outcome = OutcomeLeft
	assert.Equal(t, "a.png", c.Winner())

	c.Outcome = OutcomeRight
	assert.Equal(t, "b.png", c.Winner())

	c.Outcome = OutcomeSkip
	assert.Equal(t, "skip", c.Winner())
}

package results

import (
	"sort"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

// ImageTally counts how an image fared across comparisons
type ImageTally struct {
	Image       pairing.ImageID `json:"image" yaml:"image"`
	Wins        int             `json:"wins" yaml:"wins"`
	Losses      int             `json:"losses" yaml:"losses"`
	Skips       int             `json:"skips" yaml:"skips"`
	Appearances int             `json:"appearances" yaml:"appearances"`
	WinRate     float64         `json:"win_rate" yaml:"win_rate"`
}

// Summary aggregates a comparison log
type Summary struct {
	Comparisons int          `json:"comparisons" yaml:"comparisons"`
	Skips       int          `json:"skips" yaml:"skips"`
	Images      []ImageTally `json:"images" yaml:"images"`
}

// Tally aggregates per-image results. Images are ordered by win rate, then
// by name. Skipped comparisons do not count towards the win rate.
func Tally(log []pairing.Comparison) Summary {
	summary := Summary{Comparisons: len(log)}
	byImage := make(map[pairing.ImageID]*ImageTally)

	get := func(id pairing.ImageID) *ImageTally {
		t, ok := byImage[id]
		if !ok {
			t = &ImageTally{Image: id}
			byImage[id] = t
		}
		return t
	}

	for _, c := range log {
		left, right := get(c.Left), get(c.Right)
		left.Appearances++
		right.Appearances++

		switch c.Outcome {
		case pairing.OutcomeLeft:
			left.Wins++
			right.Losses++
		case pairing.OutcomeRight:
			right.Wins++
			left.Losses++
		default:
			summary.Skips++
			left.Skips++
			right.Skips++
		}
	}

	summary.Images = make([]ImageTally, 0, len(byImage))
	for _, t := range byImage {
		if decided := t.Wins + t.Losses; decided > 0 {
			t.WinRate = float64(t.Wins) / float64(decided)
		}
		summary.Images = append(summary.Images, *t)
	}

	sort.Slice(summary.Images, func(i, j int) bool {
		a, b := summary.Images[i], summary.Images[j]
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		return a.Image < b.Image
	})

	return summary
}

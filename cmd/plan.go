package cmd

import (
	"math/rand/v2"
	"sort"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// schedule is the YAML document printed by the plan command
type schedule struct {
	Images      []pairing.ImageID `yaml:"images"`
	Repetitions int               `yaml:"repetitions"`
	Limit       int               `yaml:"limit,omitempty"`
	Seed        uint64            `yaml:"seed"`
	Total       int               `yaml:"total"`
	Exposure    []exposure        `yaml:"exposure"`
	Pairs       []pairing.Pair    `yaml:"pairs,omitempty"`
}

type exposure struct {
	Pair  string `yaml:"pair"`
	Count int    `yaml:"count"`
}

func newPlanCmd(root *rootOptions) *cobra.Command {
	var (
		seed      uint64
		showPairs bool
		plan      planFlags
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the pair schedule a session would use",
		Long: `Generates the pair schedule for the study's images and prints it as YAML,
with how often each unordered pair is shown. Use it to check exposure
balance before running a study.`,
		Example: `  # Exposure counts for the configured study
  pairwise plan

  # Full, reproducible schedule truncated to 30 pairs
  pairwise plan --seed 42 --limit 30 --pairs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := root.loadStudy()
			if err != nil {
				return err
			}
			if err := plan.apply(cmd, study); err != nil {
				return err
			}

			ids, _, err := listImages(study)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = rand.Uint64()
			}
			p := study.Plan()
			pairs, err := pairing.GeneratePairs(rand.New(rand.NewPCG(seed, seed)), ids, p)
			if err != nil {
				return err
			}

			out := schedule{
				Images:      ids,
				Repetitions: p.Repetitions,
				Limit:       p.Limit,
				Seed:        seed,
				Total:       len(pairs),
				Exposure:    exposureOf(pairs),
			}
			if showPairs {
				out.Pairs = pairs
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default: random)")
	cmd.Flags().BoolVar(&showPairs, "pairs", false, "Include the full ordered schedule")
	plan.register(cmd)

	return cmd
}

func exposureOf(pairs []pairing.Pair) []exposure {
	counts := pairing.Exposure(pairs)
	result := make([]exposure, 0, len(counts))
	for pair, count := range counts {
		result = append(result, exposure{Pair: pair.String(), Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Pair < result[j].Pair
	})
	return result
}

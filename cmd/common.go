package cmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/pairwise/internal/config"
	"github.com/lehigh-university-libraries/pairwise/internal/images"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/spf13/cobra"
)

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// planFlags lets a command override the study's scheduling settings
type planFlags struct {
	imageDir       string
	repetitions    int
	limit          int
	quota          int
	randomizeSides bool
}

func (p *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.imageDir, "images", "", "Image directory (overrides image_dir)")
	cmd.Flags().IntVar(&p.repetitions, "repetitions", 0, "Times each unique pair is shown (overrides repetitions)")
	cmd.Flags().IntVar(&p.limit, "limit", 0, "Truncate the schedule to this many pairs (overrides limit)")
	cmd.Flags().IntVar(&p.quota, "quota", 0, "Stop after this many comparisons (overrides quota)")
	cmd.Flags().BoolVar(&p.randomizeSides, "randomize-sides", false, "Randomly swap left/right for each scheduled pair")
}

// apply copies the flags that were set onto the study
func (p *planFlags) apply(cmd *cobra.Command, study *config.Study) error {
	flags := cmd.Flags()
	if flags.Changed("images") {
		study.ImageDir = p.imageDir
	}
	if flags.Changed("repetitions") {
		study.Repetitions = p.repetitions
	}
	if flags.Changed("limit") {
		study.Limit = p.limit
	}
	if flags.Changed("quota") {
		study.Quota = p.quota
	}
	if flags.Changed("randomize-sides") {
		study.RandomizeSides = p.randomizeSides
	}
	return study.Validate()
}

func imageSource(study *config.Study) *images.DirSource {
	return images.NewDirSource(study.ImageDir, study.Extensions, study.MaxImages)
}

// listImages loads the candidate images and checks there is something to compare
func listImages(study *config.Study) ([]pairing.ImageID, *images.DirSource, error) {
	source := imageSource(study)
	ids, err := source.List()
	if err != nil {
		return nil, nil, err
	}
	if len(ids) < 2 {
		return nil, nil, fmt.Errorf("found %d images in %s, need at least 2", len(ids), study.ImageDir)
	}
	return ids, source, nil
}

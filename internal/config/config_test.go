package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	study, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "images", study.ImageDir)
	assert.Equal(t, 9, study.MaxImages)
	assert.Equal(t, 5, study.Repetitions)
	assert.Equal(t, 10, study.AutosaveEvery)
	assert.Equal(t, []string{"csv"}, study.Formats)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	content := `title: Subjective Pilot
image_dir: ./pilot
repetitions: 3
limit: 20
quota: 15
randomize_sides: true
autosave_every: 5
formats: [CSV, parquet]
session_ttl: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	study, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Subjective Pilot", study.Title)
	assert.Equal(t, "./pilot", study.ImageDir)
	assert.Equal(t, 30*time.Minute, study.SessionTTL)
	assert.Equal(t, []string{"csv", "parquet"}, study.Formats)
	assert.True(t, study.HasFormat("parquet"))
	assert.False(t, study.HasFormat("sqlite"))

	plan := study.Plan()
	assert.Equal(t, 3, plan.Repetitions)
	assert.Equal(t, 20, plan.Limit)
	assert.Equal(t, 15, plan.Quota)
	assert.True(t, plan.RandomizeSides)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PAIRWISE_IMAGE_DIR", "/data/images")
	t.Setenv("PAIRWISE_REPETITIONS", "2")
	t.Setenv("PAIRWISE_FORMATS", "sqlite,csv")
	t.Setenv("PAIRWISE_SESSION_TTL", "not-a-duration")

	study, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/images", study.ImageDir)
	assert.Equal(t, 2, study.Repetitions)
	assert.Equal(t, []string{"sqlite", "csv"}, study.Formats)
	assert.Equal(t, 2*time.Hour, study.SessionTTL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "zero repetitions", content: "repetitions: 0\n"},
		{name: "too many repetitions", content: "repetitions: 1001\n"},
		{name: "unknown format", content: "formats: [xlsx]\n"},
		{name: "negative quota", content: "quota: -1\n"},
		{name: "malformed yaml", content: "repetitions: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "study.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

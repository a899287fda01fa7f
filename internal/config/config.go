package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"gopkg.in/yaml.v3"
)

// Study describes one image comparison study
type Study struct {
	Title          string        `yaml:"title"`
	Question       string        `yaml:"question"`
	ImageDir       string        `yaml:"image_dir"`
	Extensions     []string      `yaml:"extensions"`
	MaxImages      int           `yaml:"max_images"`
	Repetitions    int           `yaml:"repetitions"`
	Limit          int           `yaml:"limit"`
	Quota          int           `yaml:"quota"`
	RandomizeSides bool          `yaml:"randomize_sides"`
	AutosaveEvery  int           `yaml:"autosave_every"`
	ResultsDir     string        `yaml:"results_dir"`
	ResultsName    string        `yaml:"results_name"`
	Formats        []string      `yaml:"formats"`
	SQLitePath     string        `yaml:"sqlite_path"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

// Default returns the study settings used when nothing else is configured
func Default() *Study {
	return &Study{
		Title:         "Image Comparison Study",
		Question:      "Which image do you prefer?",
		ImageDir:      "images",
		Extensions:    []string{".png", ".jpg", ".jpeg"},
		MaxImages:     9,
		Repetitions:   5,
		AutosaveEvery: 10,
		ResultsDir:    "results",
		ResultsName:   "comparisons",
		Formats:       []string{"csv"},
		SQLitePath:    "pairwise.db",
		SessionTTL:    2 * time.Hour,
	}
}

// Load reads the study file at path (if it exists) over the defaults and
// applies PAIRWISE_* environment overrides.
func Load(path string) (*Study, error) {
	study := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read study config: %w", err)
		default:
			if err := yaml.Unmarshal(data, study); err != nil {
				return nil, fmt.Errorf("failed to parse study config %s: %w", path, err)
			}
		}
	}

	study.applyEnv()

	if err := study.Validate(); err != nil {
		return nil, err
	}
	return study, nil
}

func (s *Study) applyEnv() {
	s.ImageDir = getEnv("PAIRWISE_IMAGE_DIR", s.ImageDir)
	s.MaxImages = getEnvAsInt("PAIRWISE_MAX_IMAGES", s.MaxImages)
	s.Repetitions = getEnvAsInt("PAIRWISE_REPETITIONS", s.Repetitions)
	s.Limit = getEnvAsInt("PAIRWISE_LIMIT", s.Limit)
	s.Quota = getEnvAsInt("PAIRWISE_QUOTA", s.Quota)
	s.RandomizeSides = getEnvAsBool("PAIRWISE_RANDOMIZE_SIDES", s.RandomizeSides)
	s.AutosaveEvery = getEnvAsInt("PAIRWISE_AUTOSAVE_EVERY", s.AutosaveEvery)
	s.ResultsDir = getEnv("PAIRWISE_RESULTS_DIR", s.ResultsDir)
	s.SQLitePath = getEnv("PAIRWISE_SQLITE_PATH", s.SQLitePath)
	s.SessionTTL = getEnvAsDuration("PAIRWISE_SESSION_TTL", s.SessionTTL)
	if formats := os.Getenv("PAIRWISE_FORMATS"); formats != "" {
		s.Formats = strings.Split(formats, ",")
	}
}

// MaxRepetitions caps how often a study may schedule each unique pair
const MaxRepetitions = 1000

// Validate checks the settings that cannot be defaulted
func (s *Study) Validate() error {
	if s.ImageDir == "" {
		return fmt.Errorf("image_dir is required")
	}
	if s.Repetitions < 1 || s.Repetitions > MaxRepetitions {
		return fmt.Errorf("repetitions must be between 1 and %d, got %d", MaxRepetitions, s.Repetitions)
	}
	if s.Limit < 0 || s.Quota < 0 || s.MaxImages < 0 {
		return fmt.Errorf("limit, quota and max_images must not be negative")
	}
	for i, f := range s.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "csv", "parquet", "sqlite":
			s.Formats[i] = f
		default:
			return fmt.Errorf("unsupported results format: %q (supported: csv, parquet, sqlite)", f)
		}
	}
	return nil
}

// Plan returns the scheduling plan described by the study
func (s *Study) Plan() pairing.Plan {
	return pairing.Plan{
		Repetitions:    s.Repetitions,
		Limit:          s.Limit,
		Quota:          s.Quota,
		RandomizeSides: s.RandomizeSides,
	}
}

// HasFormat reports whether results should be written in the given format
func (s *Study) HasFormat(format string) bool {
	for _, f := range s.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

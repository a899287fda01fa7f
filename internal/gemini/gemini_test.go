package gemini

import (
	"context"
	"testing"

	"github.com/lehigh-university-libraries/pairwise/internal/providers"
	"github.com/stretchr/testify/assert"
)

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "png", imageFormat("image/png"))
	assert.Equal(t, "jpeg", imageFormat("image/jpeg"))
	assert.Equal(t, "jpeg", imageFormat("application/octet-stream"))
	assert.Equal(t, "jpeg", imageFormat(""))
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := New().Generate(context.Background(), providers.Config{})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

package providers

import (
	"context"
)

// Image is an inline image sent along with a prompt
type Image struct {
	MIMEType string
	Data     []byte
}

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []Image
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	Generate(ctx context.Context, config Config) (string, error)
}

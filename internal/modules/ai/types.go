package ai

import "context"

// GenerateRequest describes a single text-generation call.
type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// TextGenerator produces free text from a prompt. The prompt composer depends
// on this interface so tests can inject a fake.
type TextGenerator interface {
	GenerateText(ctx context.Context, req GenerateRequest) (string, error)
}

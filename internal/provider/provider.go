// Package provider wraps the generative text and image backends behind small
// capability interfaces so task handlers can be exercised with fakes.
package provider

import "context"

// CompletionRequest is a single, context-free prompt.
type CompletionRequest struct {
	Prompt      string
	Temperature float32
	TopP        float32
}

// DefaultCreativeTemperature is used for free-form replies unless configured.
const DefaultCreativeTemperature float32 = 1

// Creative favours varied phrasing.
func Creative(prompt string, temperature float32) CompletionRequest {
	return CompletionRequest{Prompt: prompt, Temperature: temperature}
}

// Deterministic pins sampling so structured output stays stable.
func Deterministic(prompt string) CompletionRequest {
	return CompletionRequest{Prompt: prompt, Temperature: 0, TopP: 1}
}

// TextGenerator answers a single prompt with plain text.
type TextGenerator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ImageGenerator returns the delivery URL of one generated image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Downloader fetches the bytes behind a URL returned by an ImageGenerator.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

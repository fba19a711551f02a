package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var ErrEmptyResponse = errors.New("no completion response")

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	ImageSize  string
	MaxTokens  int
	HTTPClient *http.Client
}

// OpenAI implements TextGenerator and ImageGenerator with one stateless client.
type OpenAI struct {
	client     *openai.Client
	model      string
	imageModel string
	imageSize  string
	maxTokens  int
	logger     *zap.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = openai.CreateImageModelDallE3
	}
	imageSize := cfg.ImageSize
	if imageSize == "" {
		imageSize = openai.CreateImageSize1024x1024
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		imageModel: imageModel,
		imageSize:  imageSize,
		maxTokens:  cfg.MaxTokens,
		logger:     logger,
	}
}

func (c *OpenAI) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.logger.Debug("Requesting chat completion",
		zap.String("model", c.model),
		zap.Float32("temperature", req.Temperature),
		zap.Int("prompt_len", len(req.Prompt)))

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.Prompt,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: wireTemperature(req.Temperature),
			TopP:        req.TopP,
		},
	)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAI) GenerateImage(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("Requesting image",
		zap.String("model", c.imageModel),
		zap.String("size", c.imageSize))

	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           c.imageSize,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("creating image: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("creating image: %w", ErrEmptyResponse)
	}

	return resp.Data[0].URL, nil
}

// The request field is omitempty, so a literal zero would fall back to the API
// default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

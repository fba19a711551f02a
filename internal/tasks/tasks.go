// Package tasks holds one handler per assistant capability. Each handler wraps
// the cleaned user text in a fixed prompt and makes exactly one provider call.
package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/desk-assistant/internal/formatter"
	"github.com/xaenox/desk-assistant/internal/models"
	"github.com/xaenox/desk-assistant/internal/provider"
)

const (
	ImageFilename    = "generated.png"
	ImageCaption     = "Here's the image you asked for!"
	DefaultSignature = "MengC"
)

type Handlers struct {
	text        provider.TextGenerator
	images      provider.ImageGenerator
	downloader  provider.Downloader
	signature   string
	temperature float32
	logger      *zap.Logger
}

func NewHandlers(
	text provider.TextGenerator,
	images provider.ImageGenerator,
	downloader provider.Downloader,
	signature string,
	temperature float32,
	logger *zap.Logger,
) *Handlers {
	if signature == "" {
		signature = DefaultSignature
	}
	return &Handlers{
		text:        text,
		images:      images,
		downloader:  downloader,
		signature:   signature,
		temperature: temperature,
		logger:      logger,
	}
}

func (h *Handlers) Summarize(ctx context.Context, text string) (string, error) {
	return h.text.Complete(ctx, provider.Creative(SummarizePrompt(text), h.temperature))
}

func (h *Handlers) DraftEmail(ctx context.Context, text string) (string, error) {
	return h.text.Complete(ctx, provider.Creative(DraftEmailPrompt(text, h.signature), h.temperature))
}

func (h *Handlers) Therapy(ctx context.Context, text string) (string, error) {
	return h.text.Complete(ctx, provider.Creative(TherapyPrompt(text), h.temperature))
}

// Sentiment never fails on a badly shaped reply: the user gets
// formatter.GenericError and the raw reply goes to the log.
func (h *Handlers) Sentiment(ctx context.Context, text string) (string, error) {
	raw, err := h.text.Complete(ctx, provider.Deterministic(SentimentPrompt(text)))
	if err != nil {
		return "", err
	}

	formatted, err := formatter.FormatSentiment(raw)
	if err != nil {
		h.logger.Warn("Failed to format sentiment response",
			zap.Error(err),
			zap.String("response", raw))
		return formatter.GenericError, nil
	}

	return formatted, nil
}

func (h *Handlers) GenerateImage(ctx context.Context, text string) (*models.Image, error) {
	url, err := h.images.GenerateImage(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := h.downloader.Download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}

	h.logger.Info("Image generated", zap.Int("size", len(data)))

	return &models.Image{
		Filename: ImageFilename,
		Caption:  ImageCaption,
		Data:     data,
	}, nil
}

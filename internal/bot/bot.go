package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/desk-assistant/internal/classifier"
	"github.com/xaenox/desk-assistant/internal/formatter"
	"github.com/xaenox/desk-assistant/internal/models"
)

// TaskHandlers is implemented by *tasks.Handlers.
type TaskHandlers interface {
	Summarize(ctx context.Context, text string) (string, error)
	DraftEmail(ctx context.Context, text string) (string, error)
	Sentiment(ctx context.Context, text string) (string, error)
	Therapy(ctx context.Context, text string) (string, error)
	GenerateImage(ctx context.Context, text string) (*models.Image, error)
}

// Delivery posts results back to the channel a message came from.
type Delivery interface {
	SendText(ctx context.Context, channel, text string) error
	SendImage(ctx context.Context, channel string, image *models.Image) error
}

type Bot struct {
	classifier *classifier.KeywordClassifier
	handlers   TaskHandlers
	logger     *zap.Logger
}

func New(clf *classifier.KeywordClassifier, handlers TaskHandlers, logger *zap.Logger) *Bot {
	if clf == nil {
		clf = classifier.NewKeywordClassifier(nil)
	}
	return &Bot{
		classifier: clf,
		handlers:   handlers,
		logger:     logger,
	}
}

func NewMessage(text, channel, mentionMarker string) models.IncomingMessage {
	return models.IncomingMessage{
		ID:            uuid.New().String(),
		Text:          text,
		Channel:       channel,
		MentionMarker: mentionMarker,
		ReceivedAt:    time.Now(),
	}
}

// Handle routes one message to its task and returns what should be delivered.
// Provider failures are returned unchanged.
func (b *Bot) Handle(ctx context.Context, msg models.IncomingMessage) (models.Result, error) {
	intent, text := b.classifier.Route(msg.Text, msg.MentionMarker)

	b.logger.Info("Routing message",
		zap.String("request_id", msg.ID),
		zap.String("channel", msg.Channel),
		zap.String("intent", intent.String()))

	var (
		reply string
		err   error
	)

	switch intent {
	case models.IntentDraftEmail:
		reply, err = b.handlers.DraftEmail(ctx, text)
	case models.IntentSummarize:
		reply, err = b.handlers.Summarize(ctx, text)
	case models.IntentSentiment:
		reply, err = b.handlers.Sentiment(ctx, text)
	case models.IntentTherapy:
		reply, err = b.handlers.Therapy(ctx, text)
	case models.IntentGenerateImage:
		image, err := b.handlers.GenerateImage(ctx, text)
		if err != nil {
			return models.Result{}, fmt.Errorf("%s: %w", intent, err)
		}
		return models.Result{Image: image}, nil
	default:
		return models.Result{Text: classifier.HelpText}, nil
	}

	if err != nil {
		return models.Result{}, fmt.Errorf("%s: %w", intent, err)
	}

	return models.Result{Text: reply}, nil
}

// Respond runs the whole pipeline for one message. Any handler failure is
// logged and the user gets the generic error text instead.
func (b *Bot) Respond(ctx context.Context, msg models.IncomingMessage, delivery Delivery) error {
	result, err := b.Handle(ctx, msg)
	if err != nil {
		b.logger.Error("Failed to handle message",
			zap.Error(err),
			zap.String("request_id", msg.ID),
			zap.String("channel", msg.Channel))
		return b.sendText(ctx, delivery, msg, formatter.GenericError)
	}

	if result.IsImage() {
		if err := delivery.SendImage(ctx, msg.Channel, result.Image); err != nil {
			b.logger.Error("Failed to send image",
				zap.Error(err),
				zap.String("request_id", msg.ID),
				zap.String("channel", msg.Channel))
			return err
		}
		return nil
	}

	return b.sendText(ctx, delivery, msg, result.Text)
}

func (b *Bot) sendText(ctx context.Context, delivery Delivery, msg models.IncomingMessage, text string) error {
	if err := delivery.SendText(ctx, msg.Channel, text); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("request_id", msg.ID),
			zap.String("channel", msg.Channel))
		return err
	}
	return nil
}

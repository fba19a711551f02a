package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/desk-assistant/internal/bot"
	"github.com/xaenox/desk-assistant/internal/models"
)

// TelegramAPI is the part of *tgbotapi.BotAPI used for delivery.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram long-polls for updates. Group messages are only answered when they
// mention the bot; private chats are always answered.
type Telegram struct {
	api       *tgbotapi.BotAPI
	sender    TelegramAPI
	mention   string
	responder Responder
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewTelegram(token string, responder Responder, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	t := newTelegram(api, "@"+api.Self.UserName, responder, logger)
	t.api = api
	return t, nil
}

func newTelegram(sender TelegramAPI, mention string, responder Responder, logger *zap.Logger) *Telegram {
	return &Telegram{
		sender:    sender,
		mention:   mention,
		responder: responder,
		logger:    logger.With(zap.String("platform", "telegram")),
	}
}

func (t *Telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)
	t.logger.Info("Polling Telegram updates", zap.String("bot", t.mention))

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				t.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}

			t.wg.Add(1)
			go func(message *tgbotapi.Message) {
				defer t.wg.Done()
				t.handleMessage(ctx, message)
			}(update.Message)
		}
	}
}

// handleMessage keeps answering after ctx is cancelled so Start can drain
// in-flight replies on shutdown.
func (t *Telegram) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	ctx = context.WithoutCancel(ctx)

	// Get content from message
	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if content == "" || message.Chat == nil {
		return
	}

	if !message.Chat.IsPrivate() && !strings.Contains(content, t.mention) {
		return
	}

	msg := bot.NewMessage(content, strconv.FormatInt(message.Chat.ID, 10), t.mention)

	t.logger.Info("Telegram message received",
		zap.String("request_id", msg.ID),
		zap.Int64("chat_id", message.Chat.ID))

	_ = t.responder.Respond(ctx, msg, t)
}

func (t *Telegram) SendText(ctx context.Context, channel, text string) error {
	chatID, err := parseChatID(channel)
	if err != nil {
		return err
	}

	if _, err := t.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (t *Telegram) SendImage(ctx context.Context, channel string, image *models.Image) error {
	chatID, err := parseChatID(channel)
	if err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  image.Filename,
		Bytes: image.Data,
	})
	photo.Caption = image.Caption

	if _, err := t.sender.Send(photo); err != nil {
		return fmt.Errorf("sending photo: %w", err)
	}
	return nil
}

func parseChatID(channel string) (int64, error) {
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", channel, err)
	}
	return chatID, nil
}

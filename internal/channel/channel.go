// Package channel connects chat platforms to the assistant pipeline and
// implements bot.Delivery for each of them.
package channel

import (
	"context"

	"github.com/xaenox/desk-assistant/internal/bot"
	"github.com/xaenox/desk-assistant/internal/models"
)

// Responder is implemented by *bot.Bot.
type Responder interface {
	Respond(ctx context.Context, msg models.IncomingMessage, delivery bot.Delivery) error
}

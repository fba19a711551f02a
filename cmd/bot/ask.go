package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/desk-assistant/internal/bot"
	"github.com/xaenox/desk-assistant/internal/models"
	"github.com/xaenox/desk-assistant/pkg/config"
)

func newAskCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Run one message through the assistant and print the reply",
		Example: `  desk-assistant ask "summarize: the meeting ran long because..."
  desk-assistant ask --out fox.png "image: a red fox in the snow"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return errors.New("openai.api_key (OPENAI_API_KEY) is required")
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			b := newBot(cfg, logger)
			msg := bot.NewMessage(strings.Join(args, " "), "cli", "")

			logger.Debug("Asking", zap.String("request_id", msg.ID))
			return b.Respond(cmd.Context(), msg, &terminalDelivery{out: cmd.OutOrStdout(), imagePath: out})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "generated.png", "where to write a generated image")

	return cmd
}

// terminalDelivery prints text replies and writes images to disk.
type terminalDelivery struct {
	out       io.Writer
	imagePath string
}

func (d *terminalDelivery) SendText(ctx context.Context, channel, text string) error {
	_, err := fmt.Fprintln(d.out, text)
	return err
}

func (d *terminalDelivery) SendImage(ctx context.Context, channel string, image *models.Image) error {
	path := d.imagePath
	if path == "" {
		path = image.Filename
	}
	if err := os.WriteFile(path, image.Data, 0o644); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	_, err := fmt.Fprintf(d.out, "%s (%s)\n", image.Caption, path)
	return err
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/desk-assistant/internal/channel"
	"github.com/xaenox/desk-assistant/pkg/config"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Listen for chat events and answer them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err), zap.String("path", configPath))
		return err
	}

	b := newBot(cfg, logger)

	var telegramChannel *channel.Telegram
	if cfg.Telegram.Enabled {
		telegramChannel, err = channel.NewTelegram(cfg.Telegram.Token, b, logger)
		if err != nil {
			logger.Error("Failed to create telegram bot", zap.Error(err))
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Slack.Enabled {
		slackChannel := channel.NewSlack(channel.SlackConfig{
			BotToken:      cfg.Slack.BotToken,
			AppToken:      cfg.Slack.AppToken,
			SigningSecret: cfg.Slack.SigningSecret,
			BotUserID:     cfg.Slack.BotUserID,
			ListenAddr:    cfg.Slack.ListenAddr,
			EventsPath:    cfg.Slack.EventsPath,
		}, b, logger)

		if cfg.Slack.SocketMode {
			g.Go(func() error { return slackChannel.ServeSocketMode(ctx) })
		} else {
			g.Go(func() error { return slackChannel.Serve(ctx) })
		}
	}

	if telegramChannel != nil {
		g.Go(func() error { return telegramChannel.Start(ctx) })
	}

	logger.Info("Assistant started",
		zap.Bool("slack", cfg.Slack.Enabled),
		zap.Bool("slack_socket_mode", cfg.Slack.SocketMode),
		zap.Bool("telegram", cfg.Telegram.Enabled))

	if err := g.Wait(); err != nil {
		logger.Error("Assistant stopped", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

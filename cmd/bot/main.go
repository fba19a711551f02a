package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/desk-assistant/internal/bot"
	"github.com/xaenox/desk-assistant/internal/provider"
	"github.com/xaenox/desk-assistant/internal/tasks"
	"github.com/xaenox/desk-assistant/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "desk-assistant",
		Short:         "Chat assistant for summaries, email drafts, sentiment checks and images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	root.AddCommand(newServeCmd(&configPath), newAskCmd(&configPath))
	return root
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newBot wires the provider clients, task handlers and router.
func newBot(cfg *config.Config, logger *zap.Logger) *bot.Bot {
	httpClient := &http.Client{Timeout: cfg.OpenAI.HTTPTimeout}

	openAI := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.Model,
		ImageModel: cfg.OpenAI.ImageModel,
		ImageSize:  cfg.OpenAI.ImageSize,
		MaxTokens:  cfg.OpenAI.MaxTokens,
		HTTPClient: httpClient,
	}, logger)

	handlers := tasks.NewHandlers(
		openAI,
		openAI,
		provider.NewHTTPDownloader(httpClient),
		cfg.Assistant.Signature,
		cfg.OpenAI.CreativeTemperature,
		logger,
	)

	return bot.New(nil, handlers, logger)
}

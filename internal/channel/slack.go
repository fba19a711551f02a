package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"

	"github.com/xaenox/desk-assistant/internal/bot"
	"github.com/xaenox/desk-assistant/internal/models"
)

const maxEventBody = 1 << 20

// SlackAPI is the part of *slack.Client used for delivery.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

type SlackConfig struct {
	BotToken      string
	AppToken      string
	SigningSecret string
	BotUserID     string
	ListenAddr    string
	EventsPath    string
	// APIURL overrides the Slack Web API base URL.
	APIURL string
}

// Slack receives app_mention events, either over the Events API HTTP endpoint
// or over Socket Mode, and replies in the same channel.
type Slack struct {
	cfg       SlackConfig
	client    *slack.Client
	api       SlackAPI
	responder Responder
	logger    *zap.Logger

	// processing outlives the HTTP request that delivered the event and is
	// not cancelled on shutdown; Serve waits for it instead
	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewSlack(cfg SlackConfig, responder Responder, logger *zap.Logger) *Slack {
	options := []slack.Option{}
	if cfg.AppToken != "" {
		options = append(options, slack.OptionAppLevelToken(cfg.AppToken))
	}
	if cfg.APIURL != "" {
		options = append(options, slack.OptionAPIURL(cfg.APIURL))
	}
	client := slack.New(cfg.BotToken, options...)

	s := newSlack(cfg, client, responder, logger)
	s.client = client
	return s
}

func newSlack(cfg SlackConfig, api SlackAPI, responder Responder, logger *zap.Logger) *Slack {
	if cfg.EventsPath == "" {
		cfg.EventsPath = "/slack/events"
	}
	return &Slack{
		cfg:       cfg,
		api:       api,
		responder: responder,
		logger:    logger.With(zap.String("platform", "slack")),
		baseCtx:   context.Background(),
	}
}

func (s *Slack) MentionMarker() string {
	return fmt.Sprintf("<@%s>", s.cfg.BotUserID)
}

// Handler serves the Events API endpoint and a health check.
func (s *Slack) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.EventsPath, s.handleEvents)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Serve runs the HTTP endpoint until ctx is cancelled.
func (s *Slack) Serve(ctx context.Context) error {
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening for Slack events",
			zap.String("addr", s.cfg.ListenAddr),
			zap.String("path", s.cfg.EventsPath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.wg.Wait()
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("slack events server: %w", err)
	}
}

// ServeSocketMode receives events over a websocket instead of a public endpoint.
func (s *Slack) ServeSocketMode(ctx context.Context) error {
	if s.client == nil {
		return errors.New("socket mode needs a slack client")
	}
	s.baseCtx = ctx

	socket := socketmode.New(s.client)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-socket.Events:
				if !ok {
					return
				}
				s.handleSocketEvent(socket, evt)
			}
		}
	}()

	s.logger.Info("Connecting to Slack in socket mode")
	err := socket.RunContext(ctx)
	s.wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("slack socket mode: %w", err)
	}
	return nil
}

func (s *Slack) handleSocketEvent(socket *socketmode.Client, evt socketmode.Event) {
	if evt.Request != nil {
		socket.Ack(*evt.Request)
	}
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	event, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	s.dispatch(event)
}

func (s *Slack) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.verify(r.Header, body); err != nil {
		s.logger.Warn("Rejected Slack request", zap.Error(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.logger.Warn("Failed to parse Slack event", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	}

	// Slack redelivers when the first ack was slow; the first delivery is already being handled.
	if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
		s.logger.Info("Ignoring Slack retry",
			zap.String("retry_num", retry),
			zap.String("reason", r.Header.Get("X-Slack-Retry-Reason")))
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
	s.dispatch(event)
}

func (s *Slack) verify(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, s.cfg.SigningSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func (s *Slack) dispatch(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	ev, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return
	}
	if ev.BotID != "" || ev.User == s.cfg.BotUserID {
		return
	}

	msg := bot.NewMessage(ev.Text, ev.Channel, s.MentionMarker())

	s.logger.Info("Slack mention received",
		zap.String("request_id", msg.ID),
		zap.String("user", ev.User),
		zap.String("channel", ev.Channel))

	ctx := context.WithoutCancel(s.baseCtx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.responder.Respond(ctx, msg, s)
	}()
}

// Wait blocks until every dispatched event has been answered.
func (s *Slack) Wait() {
	s.wg.Wait()
}

func (s *Slack) SendText(ctx context.Context, channel, text string) error {
	if _, _, err := s.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("posting message: %w", err)
	}
	return nil
}

func (s *Slack) SendImage(ctx context.Context, channel string, image *models.Image) error {
	_, err := s.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:         bytes.NewReader(image.Data),
		FileSize:       len(image.Data),
		Filename:       image.Filename,
		Title:          image.Filename,
		Channel:        channel,
		InitialComment: image.Caption,
	})
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}
	return nil
}

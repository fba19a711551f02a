package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/desk-assistant/internal/bot"
	"github.com/xaenox/desk-assistant/internal/models"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type recordingResponder struct {
	mu       sync.Mutex
	messages []models.IncomingMessage
	reply    func(ctx context.Context, msg models.IncomingMessage, d bot.Delivery) error
}

func (r *recordingResponder) Respond(ctx context.Context, msg models.IncomingMessage, d bot.Delivery) error {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	if r.reply != nil {
		return r.reply(ctx, msg, d)
	}
	return nil
}

func (r *recordingResponder) received() []models.IncomingMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.IncomingMessage(nil), r.messages...)
}

type fakeSlackAPI struct {
	mu      sync.Mutex
	posts   []string
	uploads []slack.UploadFileV2Parameters
	err     error
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("xoxb-test", channelID, "https://slack.com/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, channelID+"|"+values.Get("text"))
	return channelID, "1.0", f.err
}

func (f *fakeSlackAPI) UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, params)
	if f.err != nil {
		return nil, f.err
	}
	return &slack.FileSummary{ID: "F1", Title: params.Title}, nil
}

func newTestSlack(t *testing.T, responder Responder, api SlackAPI) *Slack {
	t.Helper()
	return newSlack(SlackConfig{
		SigningSecret: testSigningSecret,
		BotUserID:     "B0T",
	}, api, responder, zaptest.NewLogger(t))
}

func signedRequest(t *testing.T, body string, ts time.Time) *http.Request {
	t.Helper()

	timestamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	_, _ = io.WriteString(mac, "v0:"+timestamp+":"+body)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

const mentionEvent = `{
  "token": "ignored",
  "team_id": "T1",
  "api_app_id": "A1",
  "type": "event_callback",
  "event_id": "Ev1",
  "event_time": 1700000000,
  "event": {
    "type": "app_mention",
    "user": "U42",
    "text": "<@B0T> summarize: the roadmap",
    "ts": "1700000000.000100",
    "channel": "C777",
    "event_ts": "1700000000.000100"
  }
}`

func TestSlackURLVerification(t *testing.T) {
	s := newTestSlack(t, &recordingResponder{}, &fakeSlackAPI{})

	body := `{"token":"x","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, body, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P", rec.Body.String())
}

func TestSlackAppMentionIsDispatched(t *testing.T) {
	responder := &recordingResponder{}
	s := newTestSlack(t, responder, &fakeSlackAPI{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, mentionEvent, time.Now()))
	s.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	received := responder.received()
	require.Len(t, received, 1)
	assert.Equal(t, "<@B0T> summarize: the roadmap", received[0].Text)
	assert.Equal(t, "C777", received[0].Channel)
	assert.Equal(t, "<@B0T>", received[0].MentionMarker)
	assert.NotEmpty(t, received[0].ID)
}

func TestSlackRejectsBadSignature(t *testing.T) {
	responder := &recordingResponder{}
	s := newTestSlack(t, responder, &fakeSlackAPI{})

	req := signedRequest(t, mentionEvent, time.Now())
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	s.Wait()

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, responder.received())
}

func TestSlackRejectsStaleTimestamp(t *testing.T) {
	responder := &recordingResponder{}
	s := newTestSlack(t, responder, &fakeSlackAPI{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, mentionEvent, time.Now().Add(-time.Hour)))
	s.Wait()

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, responder.received())
}

func TestSlackIgnoresRetries(t *testing.T) {
	responder := &recordingResponder{}
	s := newTestSlack(t, responder, &fakeSlackAPI{})

	req := signedRequest(t, mentionEvent, time.Now())
	req.Header.Set("X-Slack-Retry-Num", "1")
	req.Header.Set("X-Slack-Retry-Reason", "http_timeout")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	s.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, responder.received())
}

func TestSlackIgnoresBotMentions(t *testing.T) {
	responder := &recordingResponder{}
	s := newTestSlack(t, responder, &fakeSlackAPI{})

	body := strings.Replace(mentionEvent, `"user": "U42",`, `"user": "U42", "bot_id": "BX1",`, 1)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, body, time.Now()))
	s.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, responder.received())
}

func TestSlackRejectsGet(t *testing.T) {
	s := newTestSlack(t, &recordingResponder{}, &fakeSlackAPI{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSlackDelivery(t *testing.T) {
	api := &fakeSlackAPI{}
	s := newTestSlack(t, &recordingResponder{}, api)
	ctx := context.Background()

	require.NoError(t, s.SendText(ctx, "C1", "hello there"))
	require.NoError(t, s.SendImage(ctx, "C1", &models.Image{
		Filename: "generated.png",
		Caption:  "Here's the image you asked for!",
		Data:     []byte("png-bytes"),
	}))

	assert.Equal(t, []string{"C1|hello there"}, api.posts)
	require.Len(t, api.uploads, 1)
	upload := api.uploads[0]
	assert.Equal(t, "generated.png", upload.Filename)
	assert.Equal(t, "C1", upload.Channel)
	assert.Equal(t, "Here's the image you asked for!", upload.InitialComment)
	assert.Equal(t, len("png-bytes"), upload.FileSize)

	data, err := io.ReadAll(upload.Reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestSlackDeliveryErrors(t *testing.T) {
	api := &fakeSlackAPI{err: errors.New("channel_not_found")}
	s := newTestSlack(t, &recordingResponder{}, api)

	assert.ErrorContains(t, s.SendText(context.Background(), "C1", "x"), "channel_not_found")
	assert.ErrorContains(t, s.SendImage(context.Background(), "C1", &models.Image{Data: []byte("x")}), "uploading file")
}

func TestSlackEndToEndReply(t *testing.T) {
	api := &fakeSlackAPI{}
	responder := &recordingResponder{
		reply: func(ctx context.Context, msg models.IncomingMessage, d bot.Delivery) error {
			return d.SendText(ctx, msg.Channel, "summary done")
		},
	}
	s := newTestSlack(t, responder, api)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, mentionEvent, time.Now()))
	s.Wait()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"C777|summary done"}, api.posts)
}

func TestSlackShutdownDrainsAcknowledgedEvents(t *testing.T) {
	api := &fakeSlackAPI{}
	release := make(chan struct{})
	responder := &recordingResponder{
		reply: func(ctx context.Context, msg models.IncomingMessage, d bot.Delivery) error {
			<-release
			if ctx.Err() != nil {
				return d.SendText(ctx, msg.Channel, "cancelled")
			}
			return d.SendText(ctx, msg.Channel, "summary done")
		},
	}
	s := newTestSlack(t, responder, api)

	ctx, cancel := context.WithCancel(context.Background())
	s.baseCtx = ctx

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, signedRequest(t, mentionEvent, time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)

	cancel()
	close(release)
	s.Wait()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"C777|summary done"}, api.posts)
}

package models

import "time"

// IncomingMessage is a single inbound chat event addressed to the bot
type IncomingMessage struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Channel       string    `json:"channel"`
	MentionMarker string    `json:"mention_marker,omitempty"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Intent is the routing decision derived from message keywords
type Intent string

const (
	IntentSummarize     Intent = "summarize"
	IntentDraftEmail    Intent = "draft_email"
	IntentSentiment     Intent = "sentiment"
	IntentTherapy       Intent = "therapy"
	IntentGenerateImage Intent = "generate_image"
	IntentUnknown       Intent = "unknown"
)

func (i Intent) String() string {
	return string(i)
}

// Image is a generated picture ready for upload
type Image struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
	Data     []byte `json:"-"`
}

// Result is what gets delivered back to the channel. Exactly one of Text or Image is set.
type Result struct {
	Text  string `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

func (r Result) IsImage() bool {
	return r.Image != nil
}

package classifier

import (
	"strings"

	"github.com/xaenox/desk-assistant/internal/models"
)

// HelpText is sent back when no keyword marker matches.
const HelpText = "I couldn't figure out what you need. Try mentioning:\n" +
	"- 'email:', 'draft:', or 'respond:' for email generation.\n" +
	"- 'outline:', 'summary:', or 'summarize:' for text summaries.\n" +
	"- 'sentiment:', 'attitude:', or 'urgency:' for sentiment and urgency analysis.\n" +
	"- 'therapy:', 'feeling:', or 'help:' for on-the-spot therapy.\n" +
	"- 'image:', 'picture:', or 'generate:' for image generation.\n" +
	"Don't forget the colon! ( : )"

// Category maps a set of keyword markers to one intent.
type Category struct {
	Intent   models.Intent
	Keywords []string
}

// DefaultCategories are checked in order; the first category with a keyword
// contained in the message wins.
var DefaultCategories = []Category{
	{Intent: models.IntentDraftEmail, Keywords: []string{"email:", "draft:", "respond:"}},
	{Intent: models.IntentSummarize, Keywords: []string{"outline:", "summary:", "summarize:"}},
	{Intent: models.IntentSentiment, Keywords: []string{"sentiment:", "attitude:", "urgency:"}},
	{Intent: models.IntentTherapy, Keywords: []string{"therapy:", "feeling:", "help:"}},
	{Intent: models.IntentGenerateImage, Keywords: []string{"image:", "picture:", "generate:"}},
}

// KeywordClassifier routes messages by case-insensitive keyword markers.
type KeywordClassifier struct {
	categories []Category
}

func NewKeywordClassifier(categories []Category) *KeywordClassifier {
	if categories == nil {
		categories = DefaultCategories
	}
	return &KeywordClassifier{
		categories: categories,
	}
}

// Classify matches keywords as substrings of the lower-cased text.
func (c *KeywordClassifier) Classify(text string) models.Intent {
	content := strings.ToLower(text)
	for _, category := range c.categories {
		for _, keyword := range category.Keywords {
			if strings.Contains(content, keyword) {
				return category.Intent
			}
		}
	}
	return models.IntentUnknown
}

// Route strips the bot mention from raw text and classifies what remains.
// The cleaned text keeps its original case.
func (c *KeywordClassifier) Route(rawText, mentionMarker string) (models.Intent, string) {
	cleaned := StripMention(rawText, mentionMarker)
	return c.Classify(cleaned), cleaned
}

// Route uses the default keyword categories.
func Route(rawText, mentionMarker string) (models.Intent, string) {
	return NewKeywordClassifier(nil).Route(rawText, mentionMarker)
}

// StripMention removes every occurrence of mentionMarker, including markers
// that only appear once a nested one is removed, and trims the result.
func StripMention(text, mentionMarker string) string {
	if mentionMarker != "" {
		for {
			stripped := strings.ReplaceAll(text, mentionMarker, "")
			if stripped == text {
				break
			}
			text = stripped
		}
	}
	return strings.TrimSpace(text)
}

// Package formatter turns structured model replies into chat display text.
package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GenericError is the only thing a user ever sees when a reply can't be formatted.
const GenericError = "Sorry, there was an error. Please try again."

var (
	ErrJSONMalformed = errors.New("malformed json")
	ErrMissingField  = errors.New("missing field")
)

// MissingFieldError names the first required key that was absent.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Path)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

type assessment struct {
	Label    string
	Analysis string
	Score    string
}

// FormatSentiment renders a sentiment/urgency reply into the display template.
// Errors wrap ErrJSONMalformed or ErrMissingField.
func FormatSentiment(jsonText string) (string, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonText)), &data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrJSONMalformed, err)
	}

	s, err := extractAssessment(data, "sentiment")
	if err != nil {
		return "", err
	}
	u, err := extractAssessment(data, "urgency")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Sentiment: *%s*\n"+
		"Analysis: *%s*\n"+
		"Score: *%s*\n"+
		"----------\n"+
		"Urgency: *%s*\n"+
		"Analysis: *%s*\n"+
		"Score: *%s*",
		s.Label, s.Analysis, s.Score,
		u.Label, u.Analysis, u.Score), nil
}

func extractAssessment(data map[string]json.RawMessage, key string) (assessment, error) {
	raw, ok := data[key]
	if !ok || isNull(raw) {
		return assessment{}, &MissingFieldError{Path: key}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return assessment{}, &MissingFieldError{Path: key}
	}

	values := make([]string, 0, 3)
	for _, name := range []string{"label", "analysis", "score"} {
		v, ok := fields[name]
		if !ok {
			return assessment{}, &MissingFieldError{Path: key + "." + name}
		}
		values = append(values, displayValue(v))
	}

	return assessment{Label: values[0], Analysis: values[1], Score: values[2]}, nil
}

// displayValue prints strings without quotes and everything else as its JSON text.
func displayValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

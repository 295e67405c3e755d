package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("video not found")
)

// InputError is the only failure that crosses the orchestrator/engine boundary.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

const MaxTopicLen = 200

var reVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func (id VideoID) Validate() error {
	if id == "" {
		return &InputError{Field: "video_id", Reason: "empty"}
	}
	if !reVideoID.MatchString(string(id)) {
		return &InputError{Field: "video_id", Reason: fmt.Sprintf("%q is not an 11-character video id", string(id))}
	}
	return nil
}

// ValidateTopic accepts the empty topic (it simply matches nothing).
func ValidateTopic(topic string) error {
	if !utf8.ValidString(topic) {
		return &InputError{Field: "topic", Reason: "not valid UTF-8"}
	}
	if utf8.RuneCountInString(topic) > MaxTopicLen {
		return &InputError{Field: "topic", Reason: fmt.Sprintf("longer than %d characters", MaxTopicLen)}
	}
	if strings.IndexFunc(topic, func(r rune) bool { return unicode.IsControl(r) && r != '\t' }) >= 0 {
		return &InputError{Field: "topic", Reason: "contains control characters"}
	}
	return nil
}

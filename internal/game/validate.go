package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/georgeca620-star/Ai-imposter/internal/ai"
	"github.com/georgeca620-star/Ai-imposter/internal/store"
)

const (
	MaxNameLen    = 50
	MaxMessageLen = 500
	minCodeLen    = 4
	maxCodeLen    = 8
)

// ValidateName trims the display name and checks it is 1-50 characters.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if n > MaxNameLen {
		return "", fmt.Errorf("%w: name is longer than %d characters", ErrInvalidName, MaxNameLen)
	}
	return name, nil
}

func ValidateCode(code string) (string, error) {
	code = store.NormalizeCode(code)
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return "", fmt.Errorf("%w: must be %d-%d characters", ErrInvalidCode, minCodeLen, maxCodeLen)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: only letters and digits are allowed", ErrInvalidCode)
		}
	}
	return code, nil
}

func ValidatePersonality(tag string) (string, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ai.DefaultPersonality, nil
	}
	if !ai.ValidPersonality(tag) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPersonality, tag)
	}
	return tag, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLen {
		return "", ErrMessageTooLong
	}
	return content, nil
}

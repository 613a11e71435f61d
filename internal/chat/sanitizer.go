// Package chat filters the two pieces of text agents get to choose: their
// name at registration and table chat. Chat between LLM-driven agents is a
// prompt-injection surface, so messages are normalised and matched against
// a pattern list before any other agent sees them. This is policy, not a
// guarantee: it cuts off the obvious injection shapes, nothing more.
package chat

import (
	"errors"
	"regexp"
	"strings"
)

// MaxMessageBytes is the chat length cap after normalisation.
const MaxMessageBytes = 280

var (
	// ErrBadName rejects names that are empty, too long, or reduce to
	// nothing once stripped to the allowed alphabet.
	ErrBadName = errors.New("name must be 2-20 characters of letters, digits, _ or -")
	// ErrEmptyMessage rejects messages with no content after cleaning.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLong rejects messages over MaxMessageBytes.
	ErrMessageTooLong = errors.New("message too long")
	// ErrFiltered rejects messages matching an injection pattern.
	ErrFiltered = errors.New("Message filtered")
)

var (
	nameStrip  = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	whitespace = regexp.MustCompile(`\s{3,}`)
	tagShape   = regexp.MustCompile(`\[/?[A-Za-z0-9_ -]{1,32}\]`)
	markup     = regexp.MustCompile("[<>\\[\\]{}`~|\\\\]")

	// injectionPatterns are matched case-insensitively against the cleaned
	// message. A hit rejects the whole message rather than redacting it;
	// partial redaction leaves too many ways to smuggle the remainder.
	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(system|instructions?|ignore|override|admin|debug|reveal|sudo)\b`),
		regexp.MustCompile(`(?i)previous\s+prompt|new\s+instructions|you\s+are\s+now|act\s+as\b`),
		regexp.MustCompile(`(?i)</?[a-z][a-z0-9_-]*>`),
		regexp.MustCompile(`(?i)\[\s*/?\s*(system|inst|user|assistant|tool)\s*\]`),
		regexp.MustCompile("```"),
		regexp.MustCompile(`\{\{.*\}\}`),
		regexp.MustCompile(`<<.*>>`),
	}
)

// SanitizeName strips every character outside [A-Za-z0-9_-] and validates
// the remainder is 2-20 characters.
func SanitizeName(name string) (string, error) {
	cleaned := nameStrip.ReplaceAllString(name, "")
	if len(cleaned) < 2 || len(cleaned) > 20 {
		return "", ErrBadName
	}
	return cleaned, nil
}

// SanitizeMessage normalises a chat message and either returns the cleaned
// text or an error naming why it was rejected. It is total: every input
// ends in exactly one of those two outcomes.
//
// Order matters: control bytes are dropped and whitespace collapsed before
// the pattern checks, so padding tricks do not slip a pattern past them.
func SanitizeMessage(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(whitespace.ReplaceAllString(b.String(), "  "))

	if cleaned == "" {
		return "", ErrEmptyMessage
	}
	if len(cleaned) > MaxMessageBytes {
		return "", ErrMessageTooLong
	}

	for _, p := range injectionPatterns {
		if p.MatchString(cleaned) {
			return "", ErrFiltered
		}
	}

	cleaned = tagShape.ReplaceAllString(cleaned, "")
	cleaned = markup.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", ErrEmptyMessage
	}
	// Stripping can fuse a word that markup had split ("ig~nore"), so the
	// delivered text is checked again.
	for _, p := range injectionPatterns {
		if p.MatchString(cleaned) {
			return "", ErrFiltered
		}
	}
	return cleaned, nil
}

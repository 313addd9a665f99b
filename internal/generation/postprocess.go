package generation

import (
	"strings"
)

const fence = "```"

// ProcessChunk strips wrapper code fences and a trailing ContinuationMarker
// from raw model output.
func ProcessChunk(raw string) ProcessedChunk {
	text := strings.TrimSpace(StripFences(raw))

	found := strings.HasSuffix(text, ContinuationMarker)
	if found {
		text = strings.TrimRight(strings.TrimSuffix(text, ContinuationMarker), " \t\r\n")
		// The marker may follow the closing fence instead of sitting inside it.
		text = strings.TrimSpace(StripFences(text))
	}

	return ProcessedChunk{
		Text:          text,
		SentinelFound: found,
		Complete:      !found,
	}
}

// StripFences removes a markdown code fence wrapped around s. When only one
// side of the wrapper is present it is removed on its own. Backticks inside
// the content are left alone.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, fence) && !strings.HasSuffix(trimmed, fence) {
		return s
	}

	body, opened := stripOpeningFence(trimmed)
	body, _ = stripClosingFence(body, opened)
	return body
}

// stripOpeningFence drops a leading ``` line, including an optional language
// tag such as ```html.
func stripOpeningFence(s string) (string, bool) {
	if !strings.HasPrefix(s, fence) {
		return s, false
	}

	rest := s[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		// ```html with nothing else, or ```<html>...``` on one line.
		if isLanguageTag(rest) {
			return "", true
		}
		return stripInlineTag(rest), true
	}
	if !isLanguageTag(strings.TrimSpace(rest[:nl])) {
		return s, false
	}
	return rest[nl+1:], true
}

func stripClosingFence(s string, opened bool) (string, bool) {
	trimmed := strings.TrimRight(s, " \t\r\n")
	if !strings.HasSuffix(trimmed, fence) {
		return s, false
	}

	body := strings.TrimSuffix(trimmed, fence)
	// A closing fence sits on its own line unless the whole fence was one line.
	if !opened && body != "" && !strings.HasSuffix(body, "\n") {
		return s, false
	}
	return body, true
}

// stripInlineTag drops a language tag glued to markup on a one-line fence,
// as in ```html<p>x</p>``` or ```html <p>x</p>```.
func stripInlineTag(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return !isTagRune(r) })
	if end <= 0 {
		return s
	}
	rest := strings.TrimLeft(s[end:], " \t")
	if !strings.HasPrefix(rest, "<") {
		return s
	}
	return rest
}

func isLanguageTag(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if !isTagRune(r) {
			return false
		}
	}
	return true
}

func isTagRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '+', r == '.':
		return true
	}
	return false
}

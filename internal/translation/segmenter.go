package translation

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TranslateLine replaces every word of line with its translation, keeping the punctuation
// around it and a leading capital. Words without a translation are kept as they are.
// Tokens are rejoined with single spaces.
func (s *Service) TranslateLine(ctx context.Context, line string) string {
	tokens := strings.Fields(line)
	translated := make([]string, 0, len(tokens))
	for _, token := range tokens {
		translated = append(translated, s.translateToken(ctx, token))
	}
	return strings.Join(translated, " ")
}

// TranslateTitle is TranslateLine for a single headline.
func (s *Service) TranslateTitle(ctx context.Context, title string) string {
	if title == "" {
		return title
	}
	return s.TranslateLine(ctx, title)
}

// TranslateText renders text interlinearly: each non-blank line is followed by its
// word-for-word translation and an empty line. Blank lines stay blank.
func (s *Service) TranslateText(ctx context.Context, text string) string {
	if text == "" {
		return text
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, line, s.TranslateLine(ctx, line), "")
	}
	return strings.Join(lines, "\n")
}

func (s *Service) translateToken(ctx context.Context, token string) string {
	prefix, core, suffix := splitToken(token)
	if core == "" {
		return token
	}

	result := s.Lookup(ctx, core)
	if result.Status == StatusNotFound || result.Text == "" {
		return token
	}

	text := result.Text
	if first, _ := utf8.DecodeRuneInString(core); unicode.IsUpper(first) {
		text = capitalize(text)
	}
	return prefix + text + suffix
}

// splitToken separates the leading and trailing non-word characters of token from its core.
func splitToken(token string) (prefix, core, suffix string) {
	start := strings.IndexFunc(token, isWordRune)
	if start < 0 {
		return token, "", ""
	}
	end := strings.LastIndexFunc(token, isWordRune)
	_, size := utf8.DecodeRuneInString(token[end:])
	end += size
	return token[:start], token[start:end], token[end:]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + s[size:]
}

package provider

import (
	"fmt"
	"strings"
	"unicode"
)

// Validator rejects answers that are not a usable translation of the input.
type Validator struct {
	// RejectSymbols also rejects answers containing symbols such as emoji, control or
	// invisible format characters.
	RejectSymbols bool
}

// Check returns the trimmed translation, or an error wrapping ErrInvalidTranslation.
func (v Validator) Check(input, translation string) (string, error) {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTranslation)
	}
	if strings.EqualFold(translation, strings.TrimSpace(input)) {
		return "", fmt.Errorf("%w: same as input %q", ErrInvalidTranslation, input)
	}
	if v.RejectSymbols {
		for _, r := range translation {
			if isRejectedRune(r) {
				return "", fmt.Errorf("%w: unexpected character %U in %q", ErrInvalidTranslation, r, translation)
			}
		}
	}
	return translation, nil
}

func isRejectedRune(r rune) bool {
	return unicode.IsControl(r) || unicode.Is(unicode.So, r) || unicode.Is(unicode.Cf, r)
}

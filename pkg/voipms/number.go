package voipms

import (
	"regexp"
	"strings"

	"voipbits/internal/errors"
	"voipbits/internal/privacy"
)

var nonDigit = regexp.MustCompile(`\D`)

// NormalizeDestination strips all formatting from a destination number
// and reduces North American 11-digit numbers to their 10-digit form by
// dropping the leading 1. Anything that does not land on exactly ten
// digits is rejected.
func NormalizeDestination(destination string) (string, error) {
	digits := nonDigit.ReplaceAllString(destination, "")

	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}

	if len(digits) != 10 {
		return "", errors.NewInvalidNumberError(privacy.MaskPhoneNumber(destination))
	}

	return digits, nil
}

// maxChunkRunes is the provider's per-message size limit, measured in
// code points.
const maxChunkRunes = 160

// chunkMessage splits text left to right into pieces of at most
// maxChunkRunes code points. Slicing happens on rune boundaries, so a
// multi-byte character is never bisected and the chunks concatenate
// back to the original text.
func chunkMessage(text string) []string {
	runes := []rune(text)

	chunks := make([]string, 0, (len(runes)+maxChunkRunes-1)/maxChunkRunes)
	for len(runes) > 0 {
		n := len(runes)
		if n > maxChunkRunes {
			n = maxChunkRunes
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}

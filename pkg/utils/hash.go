package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

var ErrEmptyContent = errors.New("card has no content to fingerprint")

// Fingerprint hashes the semantic text of a card. Only lowercase letters,
// digits, '+' and '-' survive normalization, so whitespace, case,
// punctuation and cloze brackets never change a card's identity.
func Fingerprint(text string) (string, error) {
	normalized := NormalizeCardText(text)
	if normalized == "" {
		return "", ErrEmptyContent
	}

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}

func NormalizeCardText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

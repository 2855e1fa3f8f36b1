// Package proof builds the content-addressed digest that binds a check-in's
// date, its normalized text and a random salt. External verifiers recompute
// the digest from the stored inputs, so Hash must stay pure and its wire
// format fixed: keccak-256 over the UTF-8 bytes of
//
//	dateKey + "|" + normalizedText + "|" + saltHex
//
// rendered as "0x" followed by 64 lowercase hex characters.
package proof

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"
)

const (
	// MaxTextRunes caps the stored normalized text.
	MaxTextRunes = 280
	// SaltBytes is the number of random bytes in a salt.
	SaltBytes = 16
	// Separator joins the hashed fields.
	Separator = "|"
)

// Normalize collapses whitespace runs to single spaces, trims and truncates
// to MaxTextRunes runes. The text is otherwise hashed as written; markup is
// escaped where it is displayed, never here.
func Normalize(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) > MaxTextRunes {
		s = string([]rune(s)[:MaxTextRunes])
	}
	return s
}

// NewSalt returns SaltBytes random bytes as a 0x-prefixed hex string.
func NewSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("proof: read salt: %w", err)
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Hash computes the proof digest for a check-in.
func Hash(dateKey, normalizedText, saltHex string) string {
	return keccakHex(dateKey + Separator + normalizedText + Separator + saltHex)
}

// Verify reports whether stored matches the digest recomputed from the inputs.
func Verify(dateKey, normalizedText, saltHex, stored string) bool {
	return strings.EqualFold(Hash(dateKey, normalizedText, saltHex), stored)
}

// SimulatedTxHash derives a deterministic transaction-shaped hash from seed.
// It stands in for a chain receipt when no real transaction layer is wired.
func SimulatedTxHash(seed string) string { return keccakHex(seed) }

// IsDigest reports whether s has the 0x + 64 hex shape of a digest.
func IsDigest(s string) bool {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func keccakHex(s string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

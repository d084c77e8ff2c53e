package cryptox

import (
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/sha3"
)

var keccakHexRe = regexp.MustCompile(`[a-fA-F0-9]{64}`)

// Keccak256Hex returns the unprefixed hex Keccak-256 (pre-NIST padding) of
// text. Clients embed this value in public posts in place of the message.
func Keccak256Hex(text string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// FindKeccakHex returns the first 64-hex-digit run in text.
func FindKeccakHex(text string) (string, bool) {
	m := keccakHexRe.FindString(text)
	return m, m != ""
}

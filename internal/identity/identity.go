// Package identity derives salted one-way digests of submitter identities,
// so repeat submissions can be correlated without storing who submitted.
package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters; DigestLen is fixed so stored hex digests are always
// 128 characters.
const (
	scryptN   = 32768
	scryptR   = 8
	scryptP   = 1
	DigestLen = 64

	saltLen = 16
)

// NewSalt returns a fresh random salt, hex-encoded.
func NewSalt() (string, error) {
	buf := make([]byte, saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Digest derives the hex-encoded digest of identity under salt.
func Digest(identity, salt string) (string, error) {
	key, err := scrypt.Key([]byte(identity), []byte(salt), scryptN, scryptR, scryptP, DigestLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive identity digest: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Matches reports whether identity hashed with salt equals storedHash.
// The comparison is constant-time so a mismatch position cannot be timed.
func Matches(identity, salt, storedHash string) bool {
	digest, err := Digest(identity, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}

package utils

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"

	"github.com/google/uuid"
)

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// GenerateConfirmationCode returns a collision-resistant booking reference:
// 8 random bytes, base32 without padding (13 characters, e.g. "Q7ZP2M4KX9A3F").
func GenerateConfirmationCode() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process has bigger problems;
		// fall back to a UUID rather than returning an empty code.
		return uuid.NewString()
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
}

// GenerateHoldToken returns an opaque token correlating a seat hold with the
// client that placed it.
func GenerateHoldToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

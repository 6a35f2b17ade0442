package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenLength = 32

// NewToken returns a fresh random session token.
func NewToken() (string, error) {
	tok, err := gonanoid.New(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return tok, nil
}

// HashToken returns the value persisted for token. Raw tokens are never stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

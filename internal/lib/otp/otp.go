package otp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// TokenValueBytes is the entropy of a session token value.
// The token string is base64, roughly 4/3 times longer.
const TokenValueBytes = 24

var digits = []byte("0123456789")

// NewCode generates a numeric one-time code of the given length.
func NewCode(length int) (string, error) {
	const op = "otp.NewCode"

	if length <= 0 {
		return "", fmt.Errorf("%s: invalid code length %d", op, length)
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		code[i] = digits[n.Int64()]
	}

	return string(code), nil
}

// NewTokenValue generates an opaque session token value.
func NewTokenValue() (string, error) {
	const op = "otp.NewTokenValue"

	buf := make([]byte, TokenValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package common

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// RandomDigits returns a string of n decimal digits drawn from crypto/rand.
// Leading zeros are kept, so the result always has exactly n characters.
func RandomDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	var b strings.Builder
	b.Grow(n)

	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}

	return b.String(), nil
}

// Reply joins a tag and a message into a protocol reply line, e.g. "OK@done".
func Reply(tag, msg string) string {
	return tag + Delimiter + msg
}

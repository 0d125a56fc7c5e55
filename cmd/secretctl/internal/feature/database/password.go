package database

import (
	"crypto/rand"
	"math/big"
)

const (
	PasswordLength = 16
	// PasswordMinPerClass is the minimum count of lowercase, uppercase and digits.
	PasswordMinPerClass = 4

	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
)

// GeneratePassword returns a random alphanumeric password of PasswordLength
// characters with at least PasswordMinPerClass of each character class.
func GeneratePassword() (string, error) {
	all := lowerChars + upperChars + digitChars

	out := make([]byte, 0, PasswordLength)
	for _, class := range []string{lowerChars, upperChars, digitChars} {
		for i := 0; i < PasswordMinPerClass; i++ {
			c, err := pick(class)
			if err != nil {
				return "", err
			}
			out = append(out, c)
		}
	}
	for len(out) < PasswordLength {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the class blocks do not stay in order.
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}

	return string(out), nil
}

func pick(chars string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
	if err != nil {
		return 0, err
	}
	return chars[n.Int64()], nil
}

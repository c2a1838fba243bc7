// Package password wraps the one-way hashing primitive used for stored
// credentials. Callers never see or compare plaintext directly.
package password

import "golang.org/x/crypto/bcrypt"

const hashCost = 10

// Hash returns the one-way hash of a plaintext password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether plain matches the stored hash. A nil error means
// the password is correct.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

package utils

import "golang.org/x/crypto/bcrypt"

// HashServiceKey returns the bcrypt hash of a raw service key.  Operators
// run this once to produce the SERVICE_KEY_HASH value; only the hash is
// ever part of the configuration.
func HashServiceKey(raw string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyServiceKey safely compares a bcrypt hash and a presented key.
func VerifyServiceKey(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestServiceKeyRoundTrip(t *testing.T) {
	hash, err := HashServiceKey("super-secret-backend-key", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashServiceKey: %v", err)
	}
	if !VerifyServiceKey(hash, "super-secret-backend-key") {
		t.Error("VerifyServiceKey rejected the original key")
	}
	if VerifyServiceKey(hash, "wrong-key") {
		t.Error("VerifyServiceKey accepted a wrong key")
	}
	if VerifyServiceKey("not-a-bcrypt-hash", "super-secret-backend-key") {
		t.Error("VerifyServiceKey accepted a malformed hash")
	}
}

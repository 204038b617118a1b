package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("Sup3r-Secret!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !strings.HasPrefix(hashed, "$argon2id$") {
		t.Fatalf("expected argon2id PHC string, got %q", hashed)
	}

	match, err := VerifyPassword(hashed, "Sup3r-Secret!")
	if err != nil {
		t.Fatalf("verify password: %v", err)
	}
	if !match {
		t.Fatalf("expected password to match its own hash")
	}

	match, err = VerifyPassword(hashed, "wrong-password")
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if match {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	first, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("first hash: %v", err)
	}
	second, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("second hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct hashes for the same plaintext")
	}
	for _, hashed := range []string{first, second} {
		match, err := VerifyPassword(hashed, "same-input")
		if err != nil || !match {
			t.Fatalf("expected both hashes to verify: match=%v err=%v", match, err)
		}
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$not-base64!$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
	}
	for _, encoded := range cases {
		if _, err := VerifyPassword(encoded, "whatever"); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("expected ErrMalformedHash for %q, got %v", encoded, err)
		}
	}
}

package security

import (
	"bytes"
	"testing"
)

func TestGenerateSessionToken(t *testing.T) {
	token, hash, err := GenerateSessionToken(32)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !bytes.Equal(hash, HashSessionToken(token)) {
		t.Error("returned hash does not match HashSessionToken(token)")
	}

	other, _, err := GenerateSessionToken(32)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if token == other {
		t.Error("two generated tokens are identical")
	}
}

func TestGenerateSessionTokenDefaultsLength(t *testing.T) {
	token, _, err := GenerateSessionToken(0)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if token == "" {
		t.Fatal("empty token for default length")
	}
}

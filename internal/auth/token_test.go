package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	ti := NewTokenIssuer([]byte("super-secret"))

	tok, err := ti.Issue(42, "alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	id, ok := ti.Verify(tok)
	if !ok {
		t.Fatal("freshly issued token should verify")
	}
	if id.UserID != 42 {
		t.Errorf("UserID = %d, want 42", id.UserID)
	}
	if id.Username != "alice" {
		t.Errorf("Username = %q, want %q", id.Username, "alice")
	}
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ti := NewTokenIssuer([]byte("super-secret"))
	ti.now = func() time.Time { return issued }

	tok, err := ti.Issue(42, "alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	// Just inside the window
	ti.now = func() time.Time { return issued.Add(TokenValidity - time.Minute) }
	if _, ok := ti.Verify(tok); !ok {
		t.Error("token inside validity window should verify")
	}

	// Just past the window
	ti.now = func() time.Time { return issued.Add(TokenValidity + time.Minute) }
	if _, ok := ti.Verify(tok); ok {
		t.Error("token past validity window should be rejected")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer([]byte("right-secret")).Issue(1, "alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, ok := NewTokenIssuer([]byte("wrong-secret")).Verify(tok); ok {
		t.Error("token signed with a different secret should be rejected")
	}
}

func TestVerifyMalformed(t *testing.T) {
	ti := NewTokenIssuer([]byte("super-secret"))

	for _, tok := range []string{"", "garbage", "not.a.jwt", "a.b"} {
		if _, ok := ti.Verify(tok); ok {
			t.Errorf("Verify(%q) = ok, want rejection", tok)
		}
	}
}

func TestVerifyTampered(t *testing.T) {
	ti := NewTokenIssuer([]byte("super-secret"))

	tok, err := ti.Issue(1, "alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	tampered := tok[:len(tok)-2] + "xx"
	if _, ok := ti.Verify(tampered); ok {
		t.Error("tampered token should be rejected")
	}
}

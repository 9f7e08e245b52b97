package auth

import (
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	hash, err := svc.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := svc.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
	if err := svc.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() with wrong password should fail")
	}
}

func TestHash_DistinctSalts(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	h1, err := svc.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := svc.Hash("samepassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	// bcrypt silently truncates past 72 bytes; we reject instead.
	if _, err := svc.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("passwords over 72 bytes should be rejected")
	}
	if _, err := svc.Hash(strings.Repeat("x", 72)); err != nil {
		t.Errorf("72-byte password should hash: %v", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	svc := NewPasswordServiceForTest(4)

	if err := svc.Verify("not-a-bcrypt-hash", "whatever"); err == nil {
		t.Error("malformed hash should fail verification")
	}
}

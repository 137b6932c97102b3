package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// The bcrypt minimum cost keeps these tests fast; the logic under test does
// not depend on the work factor.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("right-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "wrong-password"); err == nil {
		t.Error("Verify() should fail for a wrong password")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	ps := newTestPasswordService()

	h1, err := ps.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password should differ by salt")
	}
}

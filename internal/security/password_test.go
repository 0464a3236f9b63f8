package security

import (
	"errors"
	"strings"
	"testing"
)

func newFastHasher(pepper string) *PasswordHasher {
	return NewPasswordHasherWithCost(pepper, 1, 8*1024)
}

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := newFastHasher("pepper")
	salt, err := h.NewSalt()
	if err != nil {
		t.Fatalf("salt: %v", err)
	}
	if len(salt) != UserSaltBytes*2 {
		t.Fatalf("unexpected salt length %d", len(salt))
	}

	encoded, err := h.Hash("correct horse battery", salt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	ok, err := h.Verify(encoded, "correct horse battery", salt)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	if ok, _ := h.Verify(encoded, "wrong password here", salt); ok {
		t.Fatal("wrong password must not verify")
	}
	if ok, _ := h.Verify(encoded, "correct horse battery", "othersalt"); ok {
		t.Fatal("wrong user salt must not verify")
	}
	if ok, _ := newFastHasher("different").Verify(encoded, "correct horse battery", salt); ok {
		t.Fatal("wrong pepper must not verify")
	}
}

func TestPasswordHasherSaltsEachHash(t *testing.T) {
	h := newFastHasher("")
	a, _ := h.Hash("same password value", "s")
	b, _ := h.Hash("same password value", "s")
	if a == b {
		t.Fatal("hashes of the same input must differ")
	}
}

func TestPasswordHasherRejectsMalformedHash(t *testing.T) {
	h := newFastHasher("")
	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$",
	} {
		if _, err := h.Verify(encoded, "pw", "salt"); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Verify(%q) err = %v, want ErrInvalidHash", encoded, err)
		}
	}
}

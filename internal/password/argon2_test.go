package password_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ErlanBelekov/uptask-api/internal/password"
)

func newHasher(t *testing.T, cfg password.Config) *password.Hasher {
	t.Helper()
	h, err := password.New(cfg)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newHasher(t, password.DevelopmentConfig())

	encoded, err := h.Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Errorf("unexpected encoding: %s", encoded)
	}

	ok, err := h.Verify("pw123456", encoded)
	if err != nil || !ok {
		t.Errorf("Verify(correct) = %v, %v; want true, nil", ok, err)
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil || ok {
		t.Errorf("Verify(wrong) = %v, %v; want false, nil", ok, err)
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := newHasher(t, password.DevelopmentConfig())

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyMalformed(t *testing.T) {
	h := newHasher(t, password.DevelopmentConfig())

	cases := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	}
	for _, tc := range cases {
		ok, err := h.Verify("pw", tc)
		if ok || !errors.Is(err, password.ErrMalformedHash) {
			t.Errorf("Verify(%q) = %v, %v; want false, ErrMalformedHash", tc, ok, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	dev := newHasher(t, password.DevelopmentConfig())
	prod := newHasher(t, password.ProductionConfig(16, 2, 1))

	encoded, err := dev.Hash("pw123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if stale, _ := dev.NeedsRehash(encoded); stale {
		t.Error("hash with current params should not need rehash")
	}
	if stale, _ := prod.NeedsRehash(encoded); !stale {
		t.Error("hash with weaker params should need rehash")
	}

	// Stronger hashers still verify older hashes.
	if ok, _ := prod.Verify("pw123456", encoded); !ok {
		t.Error("prod hasher should verify a dev hash")
	}
}

func TestNewRejectsWeakConfig(t *testing.T) {
	cfg := password.DevelopmentConfig()
	cfg.MemoryKB = 1024
	if _, err := password.New(cfg); err == nil {
		t.Error("expected error for memory below minimum")
	}
}

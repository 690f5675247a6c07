package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := New(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestNewRejectsWeakParameters(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"memory below floor", Config{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
		{"zero time", Config{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
		{"zero parallelism", Config{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32}},
		{"short salt", Config{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32}},
		{"short key", Config{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Fatal("expected parameter error")
			}
		})
	}
}

func TestHashVerify(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = h.Verify("wrong secret", encoded)
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if ok {
		t.Fatal("wrong secret verified")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("same secret")
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash("same secret")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same secret must differ")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := testHasher(t)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	} {
		if _, err := h.Verify("secret", encoded); err == nil {
			t.Errorf("Verify(%q) accepted malformed hash", encoded)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, err := New(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := weak.Hash("secret")
	if err != nil {
		t.Fatal(err)
	}

	same, err := weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if same {
		t.Error("hash with current parameters flagged for upgrade")
	}

	strong, err := New(Config{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatal(err)
	}
	upgrade, err := strong.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !upgrade {
		t.Error("hash with weaker parameters not flagged for upgrade")
	}
}

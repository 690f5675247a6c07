package sentinelgate

import (
	"strings"
	"testing"
	"time"
)

// rfc4226Secret is the shared HOTP reference secret "12345678901234567890".
var rfc4226Secret = []byte("12345678901234567890")

func TestOneTimeCodeReferenceVectors(t *testing.T) {
	// Truncated reference outputs for counters 0..9 with SHA1 and 6 digits.
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
	for counter, expected := range want {
		got, err := oneTimeCode(rfc4226Secret, int64(counter), 6, "SHA1")
		if err != nil {
			t.Fatal(err)
		}
		if got != expected {
			t.Errorf("counter %d: got %s, want %s", counter, got, expected)
		}
	}
}

func TestOneTimeCodeRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := oneTimeCode(rfc4226Secret, 0, 6, "MD5"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func testStepUpManager() *stepUpManager {
	return newStepUpManager(StepUpConfig{
		Digits:    6,
		Period:    30,
		Skew:      1,
		Algorithm: "SHA1",
		Issuer:    "sentinelgate",
	})
}

func codeAt(t *testing.T, m *stepUpManager, secret []byte, at time.Time) string {
	t.Helper()
	code, err := oneTimeCode(secret, at.Unix()/int64(m.config.Period), m.config.Digits, m.config.Algorithm)
	if err != nil {
		t.Fatal(err)
	}
	return code
}

func TestVerifyCodeWindow(t *testing.T) {
	m := testStepUpManager()
	now := time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"current step", now, true},
		{"previous step", now.Add(-30 * time.Second), true},
		{"next step", now.Add(30 * time.Second), true},
		{"two steps back", now.Add(-60 * time.Second), false},
		{"two steps ahead", now.Add(60 * time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := codeAt(t, m, rfc4226Secret, tc.at)
			ok, err := m.VerifyCode(rfc4226Secret, code, now)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.want {
				t.Errorf("VerifyCode = %v, want %v", ok, tc.want)
			}
		})
	}
}

func TestVerifyCodeMalformedIsNonMatch(t *testing.T) {
	m := testStepUpManager()
	now := time.Now()

	for _, code := range []string{"", "12345", "1234567", "12a456", "  1234"} {
		ok, err := m.VerifyCode(rfc4226Secret, code, now)
		if err != nil {
			t.Fatalf("VerifyCode(%q) errored: %v", code, err)
		}
		if ok {
			t.Errorf("VerifyCode(%q) matched", code)
		}
	}
}

func TestVerifyCodeTrimsWhitespace(t *testing.T) {
	m := testStepUpManager()
	now := time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)

	code := codeAt(t, m, rfc4226Secret, now)
	ok, err := m.VerifyCode(rfc4226Secret, " "+code+" ", now)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("surrounding whitespace must be tolerated")
	}
}

func TestVerifyCodeEmptySecret(t *testing.T) {
	m := testStepUpManager()
	if _, err := m.VerifyCode(nil, "123456", time.Now()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestGenerateSecret(t *testing.T) {
	m := testStepUpManager()

	raw, encoded, err := m.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != stepUpSecretBytes {
		t.Errorf("raw length = %d", len(raw))
	}
	if strings.ContainsRune(encoded, '=') {
		t.Error("encoded secret must not be padded")
	}

	_, encoded2, err := m.GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if encoded == encoded2 {
		t.Error("two generated secrets must differ")
	}
}

func TestProvisionURI(t *testing.T) {
	m := testStepUpManager()
	uri := m.ProvisionURI("JBSWY3DPEHPK3PXP", "root@example.com")

	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected scheme: %s", uri)
	}
	for _, fragment := range []string{
		"secret=JBSWY3DPEHPK3PXP",
		"issuer=sentinelgate",
		"digits=6",
		"period=30",
		"algorithm=SHA1",
	} {
		if !strings.Contains(uri, fragment) {
			t.Errorf("uri missing %q: %s", fragment, uri)
		}
	}
}

func TestMaskCode(t *testing.T) {
	cases := map[string]string{
		"123456": "12****",
		"12":     "****",
		"":       "****",
	}
	for in, want := range cases {
		if got := maskCode(in); got != want {
			t.Errorf("maskCode(%q) = %q, want %q", in, got, want)
		}
	}
}

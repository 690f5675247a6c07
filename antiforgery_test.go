package sentinelgate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestValidateAntiForgeryMapping(t *testing.T) {
	e, _ := newTestEngine(t)

	tok := e.AntiForgery().Issue()
	if err := e.ValidateAntiForgery(tok); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	if err := e.ValidateAntiForgery(""); !errors.Is(err, ErrAntiForgeryMissing) {
		t.Errorf("err = %v, want ErrAntiForgeryMissing", err)
	}
	if err := e.ValidateAntiForgery("not.a.token"); !errors.Is(err, ErrAntiForgeryInvalid) {
		t.Errorf("err = %v, want ErrAntiForgeryInvalid", err)
	}

	// A correctly signed token whose issue time is past the max age.
	stale := signedAntiForgeryToken(t, testEngineConfig().AntiForgery.Secret, time.Now().Add(-2*time.Hour))
	if err := e.ValidateAntiForgery(stale); !errors.Is(err, ErrAntiForgeryExpired) {
		t.Errorf("err = %v, want ErrAntiForgeryExpired", err)
	}
}

func TestValidateAntiForgeryNilEngine(t *testing.T) {
	var e *Engine
	if err := e.ValidateAntiForgery("anything"); !errors.Is(err, ErrEngineNotReady) {
		t.Errorf("err = %v, want ErrEngineNotReady", err)
	}
}

// signedAntiForgeryToken builds a guard-shaped token with an arbitrary
// issue time, signed with the given secret.
func signedAntiForgeryToken(t *testing.T, secret []byte, issuedAt time.Time) string {
	t.Helper()

	nonce := base64.RawURLEncoding.EncodeToString([]byte("test-nonce"))
	issued := strconv.FormatInt(issuedAt.Unix(), 10)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(nonce + "." + issued))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return nonce + "." + issued + "." + sig
}

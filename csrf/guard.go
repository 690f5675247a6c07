package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissing is returned when neither header nor cookie carries a token.
	ErrMissing = errors.New("anti-forgery token missing")
	// ErrInvalid is returned for tampered or unparseable tokens.
	ErrInvalid = errors.New("anti-forgery token invalid")
	// ErrExpired is returned when the embedded issue time is older than the
	// configured max age.
	ErrExpired = errors.New("anti-forgery token expired")
)

// Config tunes the guard. Secret has no default; New rejects an empty one.
type Config struct {
	Secret     []byte
	MaxAge     time.Duration
	CookieName string
	HeaderName string
}

// Guard issues and validates anti-forgery tokens. Safe for concurrent use.
type Guard struct {
	config Config

	// now is overridable in tests.
	now func() time.Time
}

// New validates cfg and returns a Guard.
func New(cfg Config) (*Guard, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("anti-forgery secret required")
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("anti-forgery max age must be positive")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "csrf_token"
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-CSRF-Token"
	}
	return &Guard{config: cfg, now: time.Now}, nil
}

// CookieName returns the configured cookie name.
func (g *Guard) CookieName() string { return g.config.CookieName }

// HeaderName returns the configured header name.
func (g *Guard) HeaderName() string { return g.config.HeaderName }

// MaxAge returns the configured token lifetime.
func (g *Guard) MaxAge() time.Duration { return g.config.MaxAge }

// Issue creates a fresh signed token: base64url(nonce).issued.base64url(sig).
// Two consecutive issues always differ because the nonce is a random UUID.
func (g *Guard) Issue() string {
	nonce := base64.RawURLEncoding.EncodeToString([]byte(uuid.NewString()))
	issued := strconv.FormatInt(g.now().Unix(), 10)
	return nonce + "." + issued + "." + g.sign(nonce, issued)
}

// Validate checks structure, signature, and age.
func (g *Guard) Validate(tok string) error {
	if tok == "" {
		return ErrMissing
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return ErrInvalid
	}
	nonce, issued, sig := parts[0], parts[1], parts[2]

	expected := g.sign(nonce, issued)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return ErrInvalid
	}

	issuedUnix, err := strconv.ParseInt(issued, 10, 64)
	if err != nil {
		return ErrInvalid
	}
	if g.now().Sub(time.Unix(issuedUnix, 0)) > g.config.MaxAge {
		return ErrExpired
	}

	return nil
}

// FromRequest extracts the token, header first, cookie as fallback.
func (g *Guard) FromRequest(r *http.Request) string {
	if tok := r.Header.Get(g.config.HeaderName); tok != "" {
		return tok
	}
	if c, err := r.Cookie(g.config.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the token cookie: HttpOnly, SameSite=Strict, Secure only
// when the request arrived over TLS.
func (g *Guard) SetCookie(w http.ResponseWriter, r *http.Request, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.config.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(g.config.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (g *Guard) sign(nonce, issued string) string {
	mac := hmac.New(sha256.New, g.config.Secret)
	_, _ = fmt.Fprintf(mac, "%s.%s", nonce, issued)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

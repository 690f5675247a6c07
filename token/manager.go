package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned when a token is past its stated expiry.
	ErrExpired = errors.New("token expired")
	// ErrBadSignature is returned when the signature does not verify.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrMalformed is returned for tokens that do not parse at all.
	ErrMalformed = errors.New("token malformed")
)

// Config holds the signing parameters. Secret and Algorithm are injected;
// there are no production defaults here.
type Config struct {
	TTL       time.Duration
	Algorithm string // HS256, HS384, HS512
	Secret    []byte
	Issuer    string
	Leeway    time.Duration
}

// Claims is the session token payload. Subject is always a string, never a
// raw integer, so downstream consumers cannot mis-coerce the id. StepUpCode
// is present only on tokens issued to privileged principals.
type Claims struct {
	StepUpCode string `json:"totp,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a single shared symmetric
// secret. Safe for concurrent use after construction.
type Manager struct {
	config Config
	method jwt.SigningMethod

	// now is overridable in tests.
	now func() time.Time
}

// NewManager validates cfg and returns a ready Manager. Only the HMAC family
// is accepted: the pipeline assumes one shared secret, and permitting
// asymmetric or "none" algorithms here would reopen the classic JWT
// algorithm-confusion hole.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(cfg.Algorithm) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg, method: method, now: time.Now}, nil
}

// Issue creates a signed token for subject. When stepUpCode is non-empty it
// is embedded verbatim in the totp claim; the gate re-validates it against
// the live time window on every request.
func (m *Manager) Issue(subject, stepUpCode string) (string, error) {
	if m == nil {
		return "", errors.New("nil token manager")
	}
	if subject == "" {
		return "", errors.New("empty subject")
	}

	now := m.now()
	claims := Claims{
		StepUpCode: stepUpCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.config.Secret)
}

// Verify checks signature, expiry, and issuer, and returns the decoded
// claims. It deliberately does not touch the embedded step-up code.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("nil token manager")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

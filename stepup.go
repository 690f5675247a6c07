package sentinelgate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stepUpSecretBytes = 20

type stepUpManager struct {
	config StepUpConfig
}

func newStepUpManager(cfg StepUpConfig) *stepUpManager {
	if cfg.Algorithm == "" {
		cfg.Algorithm = "SHA1"
	}
	return &stepUpManager{config: cfg}
}

func (m *stepUpManager) GenerateSecret() ([]byte, string, error) {
	if m == nil {
		return nil, "", ErrEngineNotReady
	}
	raw := make([]byte, stepUpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return raw, enc.EncodeToString(raw), nil
}

func (m *stepUpManager) ProvisionURI(secretBase32, account string) string {
	issuer := m.config.Issuer
	label := url.PathEscape(issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secretBase32)
	v.Set("issuer", issuer)
	v.Set("period", strconv.Itoa(m.config.Period))
	v.Set("digits", strconv.Itoa(m.config.Digits))
	v.Set("algorithm", strings.ToUpper(m.config.Algorithm))

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// VerifyCode checks code against every step in the tolerance window. All
// steps are compared even after a match so timing does not reveal which
// step (or whether any) matched. Malformed codes are a non-match, not an
// error.
func (m *stepUpManager) VerifyCode(secret []byte, code string, now time.Time) (bool, error) {
	if m == nil {
		return false, ErrEngineNotReady
	}

	trimmed := strings.TrimSpace(code)
	if len(trimmed) != m.config.Digits || !isNumericString(trimmed) {
		return false, nil
	}

	if len(secret) == 0 {
		return false, errors.New("empty step-up secret")
	}

	matched := 0
	baseStep := now.Unix() / int64(m.config.Period)
	for offset := -m.config.Skew; offset <= m.config.Skew; offset++ {
		step := baseStep + int64(offset)
		if step < 0 {
			continue
		}
		generated, err := oneTimeCode(secret, step, m.config.Digits, m.config.Algorithm)
		if err != nil {
			return false, err
		}
		matched |= subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed))
	}

	return matched == 1, nil
}

func oneTimeCode(secret []byte, step int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(step))

	hf, err := stepUpHashFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func stepUpHashFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported step-up algorithm")
	}
}

func isNumericString(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// maskCode renders a one-time code for audit output: first two digits kept,
// the rest starred. Full codes never reach logs.
func maskCode(code string) string {
	if len(code) <= 2 {
		return "****"
	}
	return code[:2] + strings.Repeat("*", len(code)-2)
}

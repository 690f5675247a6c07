package sentinelgate

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("token-test-secret-0123456789abcdef")
	cfg.AntiForgery.Secret = []byte("csrf-test-secret-0123456789abcdef")
	return cfg
}

func TestDefaultConfigRequiresSecrets(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config must not validate without secrets")
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short token secret", func(c *Config) { c.Token.Secret = []byte("short") }},
		{"asymmetric algorithm", func(c *Config) { c.Token.Algorithm = "RS256" }},
		{"zero ttl", func(c *Config) { c.Token.TTL = 0 }},
		{"excessive leeway", func(c *Config) { c.Token.Leeway = 10 * time.Minute }},
		{"too few digits", func(c *Config) { c.StepUp.Digits = 4 }},
		{"zero period", func(c *Config) { c.StepUp.Period = 0 }},
		{"excessive skew", func(c *Config) { c.StepUp.Skew = 5 }},
		{"zero attempt budget", func(c *Config) { c.Login.MaxFailedAttempts = 0 }},
		{"zero global limit", func(c *Config) { c.RateLimit.GlobalLimit = 0 }},
		{"zero login window", func(c *Config) { c.RateLimit.LoginWindow = 0 }},
		{"short anti-forgery secret", func(c *Config) { c.AntiForgery.Secret = []byte("short") }},
		{"zero anti-forgery age", func(c *Config) { c.AntiForgery.MaxAge = 0 }},
		{"empty cookie name", func(c *Config) { c.AntiForgery.CookieName = "" }},
		{"zero lookup timeout", func(c *Config) { c.Gate.LookupTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateSkipsRateLimitsWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.GlobalLimit = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limiting must not be validated: %v", err)
	}
}

func TestCloneConfigIsolatesMutableState(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	cfg.Token.Secret[0] ^= 0xff
	if clone.Token.Secret[0] == cfg.Token.Secret[0] {
		t.Error("token secret shared between clone and original")
	}

	cfg.RateLimit.ExemptPrefixes[0] = "/changed"
	if clone.RateLimit.ExemptPrefixes[0] == "/changed" {
		t.Error("exempt prefixes shared between clone and original")
	}
}

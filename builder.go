package sentinelgate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/adrisa007/sentinelgate/csrf"
	"github.com/adrisa007/sentinelgate/internal/rate"
	"github.com/adrisa007/sentinelgate/password"
	"github.com/adrisa007/sentinelgate/token"
)

// Builder assembles an [Engine] from explicit dependencies. Nothing in the
// pipeline is ambient global state: signer, guards, and counters are all
// owned by the built engine, so tests can run isolated instances.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	principalProvider PrincipalProvider
	tenantProvider    TenantProvider
	auditSink         AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig]. Secrets must still be
// injected via WithConfig before Build.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis injects the Redis client backing the rate governor and the
// failed-login limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPrincipalProvider injects the principal store integration.
func (b *Builder) WithPrincipalProvider(p PrincipalProvider) *Builder {
	b.principalProvider = p
	return b
}

// WithTenantProvider injects the tenant store integration. Optional when no
// route is tenant-scoped.
func (b *Builder) WithTenantProvider(p TenantProvider) *Builder {
	b.tenantProvider = p
	return b
}

// WithAuditSink injects the audit destination. Defaults to a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration, wires every component, and returns the
// engine. A builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.principalProvider == nil {
		return nil, errors.New("principal provider required")
	}

	tokens, err := token.NewManager(token.Config{
		TTL:       cfg.Token.TTL,
		Algorithm: cfg.Token.Algorithm,
		Secret:    cloneBytes(cfg.Token.Secret),
		Issuer:    cfg.Token.Issuer,
		Leeway:    cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	guard, err := csrf.New(csrf.Config{
		Secret:     cloneBytes(cfg.AntiForgery.Secret),
		MaxAge:     cfg.AntiForgery.MaxAge,
		CookieName: cfg.AntiForgery.CookieName,
		HeaderName: cfg.AntiForgery.HeaderName,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:            cfg,
		principalProvider: b.principalProvider,
		tenantProvider:    b.tenantProvider,
		tokens:            tokens,
		passwordHash:      hasher,
		stepUp:            newStepUpManager(cfg.StepUp),
		antiForgery:       guard,
		governor: rate.New(b.redis, rate.Config{
			Prefix:          cfg.RateLimit.RedisPrefix,
			GlobalLimit:     cfg.RateLimit.GlobalLimit,
			GlobalWindow:    cfg.RateLimit.GlobalWindow,
			LoginLimit:      cfg.RateLimit.LoginLimit,
			LoginWindow:     cfg.RateLimit.LoginWindow,
			FailureLimit:    cfg.Login.MaxFailedAttempts,
			FailureCooldown: cfg.Login.Cooldown,
		}),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}
	engine.now = timeNow

	b.built = true

	return engine, nil
}

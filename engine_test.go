package sentinelgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeStore is an in-memory PrincipalProvider and TenantProvider. The hang
// flag makes every lookup block until the context expires, for fail-closed
// tests.
type fakeStore struct {
	mu         sync.Mutex
	principals map[string]PrincipalRecord
	byIdent    map[string]string
	tenants    map[string]TenantRecord
	hang       bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		principals: map[string]PrincipalRecord{},
		byIdent:    map[string]string{},
		tenants:    map[string]TenantRecord{},
	}
}

func (s *fakeStore) blockIfHanging(ctx context.Context) error {
	s.mu.Lock()
	hang := s.hang
	s.mu.Unlock()
	if !hang {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeStore) GetPrincipalByIdentifier(ctx context.Context, identifier string) (PrincipalRecord, error) {
	if err := s.blockIfHanging(ctx); err != nil {
		return PrincipalRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIdent[identifier]
	if !ok {
		return PrincipalRecord{}, ErrPrincipalNotFound
	}
	return s.principals[id], nil
}

func (s *fakeStore) GetPrincipalByID(ctx context.Context, principalID string) (PrincipalRecord, error) {
	if err := s.blockIfHanging(ctx); err != nil {
		return PrincipalRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[principalID]
	if !ok {
		return PrincipalRecord{}, ErrPrincipalNotFound
	}
	return p, nil
}

func (s *fakeStore) UpdateStepUpSecret(_ context.Context, principalID string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.principals[principalID]
	p.StepUpSecret = secret
	p.StepUpEnabled = false
	s.principals[principalID] = p
	return nil
}

func (s *fakeStore) EnableStepUp(_ context.Context, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.principals[principalID]
	p.StepUpEnabled = true
	s.principals[principalID] = p
	return nil
}

func (s *fakeStore) TouchLastLogin(_ context.Context, principalID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.principals[principalID]
	p.LastLogin = at
	s.principals[principalID] = p
	return nil
}

func (s *fakeStore) GetTenantByID(ctx context.Context, tenantID string) (TenantRecord, error) {
	if err := s.blockIfHanging(ctx); err != nil {
		return TenantRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return TenantRecord{}, ErrTenantNotFound
	}
	return t, nil
}

func (s *fakeStore) UpdateTenantStatus(_ context.Context, tenantID string, status TenantStatus, reason string, at time.Time) (TenantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tenants[tenantID]
	t.Status = status
	t.StatusReason = reason
	t.StatusChangedAt = at
	s.tenants[tenantID] = t
	return t, nil
}

func (s *fakeStore) setHang(hang bool) {
	s.mu.Lock()
	s.hang = hang
	s.mu.Unlock()
}

func (s *fakeStore) addTenant(rec TenantRecord) {
	s.mu.Lock()
	s.tenants[rec.TenantID] = rec
	s.mu.Unlock()
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("token-test-secret-0123456789abcdef")
	cfg.AntiForgery.Secret = []byte("csrf-test-secret-0123456789abcdef")
	cfg.Password = PasswordConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.Login = LoginConfig{MaxFailedAttempts: 3, Cooldown: time.Minute}
	cfg.Gate.LookupTimeout = 100 * time.Millisecond
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore()
	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(client).
		WithPrincipalProvider(store).
		WithTenantProvider(store).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

// seedPrincipal hashes the secret and registers the record. Enrolled
// principals share the reference TOTP secret so tests can compute codes.
func seedPrincipal(t *testing.T, e *Engine, store *fakeStore, rec PrincipalRecord, secret string, enrolled bool) {
	t.Helper()

	hash, err := e.passwordHash.Hash(secret)
	if err != nil {
		t.Fatal(err)
	}
	rec.CredentialHash = hash
	if enrolled {
		rec.StepUpSecret = rfc4226Secret
		rec.StepUpEnabled = true
	}

	store.mu.Lock()
	store.principals[rec.PrincipalID] = rec
	store.byIdent[rec.Identifier] = rec.PrincipalID
	store.mu.Unlock()
}

func validCode(t *testing.T, e *Engine, at time.Time) string {
	t.Helper()
	return codeAt(t, e.stepUp, rfc4226Secret, at)
}

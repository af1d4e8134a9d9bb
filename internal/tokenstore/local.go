package tokenstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/otpgate/internal/observability/logger"
	"github.com/dropDatabas3/otpgate/internal/tenant"
)

// localEntry es un token vivo en memoria.
type localEntry struct {
	value     string
	expiresAt time.Time
	noExpire  bool
}

func (e localEntry) expired(now time.Time) bool {
	return !e.noExpire && now.After(e.expiresAt)
}

// bucket agrupa los tokens de un tenant bajo su propio lock, así los
// tenants no contienden entre sí.
type bucket struct {
	mu      sync.Mutex
	entries map[string]localEntry
}

// LocalStore guarda los tokens en memoria del proceso. No sirve para
// instalaciones multi-instancia con failover; para eso están los backends
// postgres y redis.
//
// El set de buckets queda fijo en la construcción (uno por tenant del
// registry), por lo que el mapa exterior es read-only y solo los mapas
// internos requieren lock.
type LocalStore struct {
	reg     *tenant.Registry
	buckets map[string]*bucket
}

// NewLocal crea un LocalStore con un bucket por tenant del registry.
func NewLocal(reg *tenant.Registry) *LocalStore {
	buckets := make(map[string]*bucket, reg.Len())
	for _, name := range reg.Names() {
		buckets[name] = &bucket{entries: make(map[string]localEntry)}
	}
	return &LocalStore{reg: reg, buckets: buckets}
}

func (s *LocalStore) Put(ctx context.Context, tenantName, uid, token string) error {
	t, b, err := s.resolve(tenantName, uid, token)
	if err != nil {
		return err
	}

	entry := localEntry{value: token, noExpire: t.Lifetime == 0}
	if t.Lifetime > 0 {
		entry.expiresAt = time.Now().Add(t.Lifetime)
	}

	b.mu.Lock()
	b.entries[uid] = entry
	b.mu.Unlock()

	logger.From(ctx).Debug("token stored",
		logger.Backend("local"), logger.Tenant(tenantName), logger.UID(uid))
	return nil
}

func (s *LocalStore) Validate(ctx context.Context, tenantName, uid, token string) (bool, error) {
	_, b, err := s.resolve(tenantName, uid, token)
	if err != nil {
		return false, err
	}
	log := logger.From(ctx).With(
		logger.Backend("local"), logger.Tenant(tenantName), logger.UID(uid))

	// Lookup, chequeo de expiración, comparación y consumo en una sola
	// sección crítica: acá es donde vive la carrera check-then-consume.
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[uid]
	if !ok {
		log.Debug("uid not present in tokenstore")
		return false, nil
	}
	if entry.expired(time.Now()) {
		// Lazy sweep: la entrada ya venció, eliminarla de paso.
		delete(b.entries, uid)
		log.Debug("token found but expired")
		return false, nil
	}
	if entry.value != token {
		log.Debug("token value did not match")
		return false, nil
	}

	// Token válido: consumirlo para que un replay retorne false.
	delete(b.entries, uid)
	return true, nil
}

func (s *LocalStore) RemoveExpired(ctx context.Context) error {
	now := time.Now()
	var removed int64
	for _, b := range s.buckets {
		b.mu.Lock()
		for uid, entry := range b.entries {
			if entry.expired(now) {
				delete(b.entries, uid)
				removed++
			}
		}
		b.mu.Unlock()
	}
	if removed > 0 {
		logger.From(ctx).Debug("expired tokens removed",
			logger.Backend("local"), logger.Removed(removed))
	}
	return nil
}

func (s *LocalStore) RequiresReaper() bool { return true }

func (s *LocalStore) Close() error {
	for _, b := range s.buckets {
		b.mu.Lock()
		b.entries = make(map[string]localEntry)
		b.mu.Unlock()
	}
	return nil
}

// resolve valida los argumentos y retorna el tenant y su bucket.
func (s *LocalStore) resolve(tenantName, uid, token string) (tenant.Tenant, *bucket, error) {
	if uid == "" {
		return tenant.Tenant{}, nil, fmt.Errorf("%w: uid must not be empty", ErrInvalidArgument)
	}
	if token == "" {
		return tenant.Tenant{}, nil, fmt.Errorf("%w: token must not be empty", ErrInvalidArgument)
	}
	t, ok := s.reg.ByName(tenantName)
	if !ok {
		return tenant.Tenant{}, nil, fmt.Errorf("%w: unknown tenant %q", ErrInvalidArgument, tenantName)
	}
	return t, s.buckets[tenantName], nil
}

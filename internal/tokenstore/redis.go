package tokenstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/otpgate/internal/observability/logger"
	"github.com/dropDatabas3/otpgate/internal/tenant"
)

const defaultKeyPrefix = "otp"

// validateScript hace el check-and-consume del lado del servidor: GET,
// comparación y DEL corren como una unidad, así validaciones concurrentes
// sobre la misma key resuelven con exactamente un ganador.
var validateScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// RedisStore guarda cada (tenant, uid) como una key remota cuyo valor es el
// token, con TTL nativo del servidor. RemoveExpired no aplica: el servidor
// expira las entradas solo.
//
// La autenticación es lazy: se verifica en el primer uso y, ante un error
// de auth en cualquier llamada, se reintenta una vez antes de reportar
// ErrStoreUnavailable.
type RedisStore struct {
	rdb    *redis.Client
	reg    *tenant.Registry
	prefix string
	authed atomic.Bool
}

// NewRedis construye el store. No toca la red: la primera operación hace el
// handshake (ping/auth).
func NewRedis(cfg RedisConfig, reg *tenant.Registry) *RedisStore {
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{rdb: rdb, reg: reg, prefix: prefix}
}

// NewRedisWithClient construye el store sobre un cliente ya creado.
// Usado en tests (miniredis).
func NewRedisWithClient(rdb *redis.Client, reg *tenant.Registry) *RedisStore {
	return &RedisStore{rdb: rdb, reg: reg, prefix: defaultKeyPrefix}
}

func (s *RedisStore) Put(ctx context.Context, tenantName, uid, token string) error {
	t, err := s.resolve(tenantName, uid, token)
	if err != nil {
		return err
	}

	key := s.key(tenantName, uid)
	err = s.exec(ctx, "put", func() error {
		// Lifetime 0 = sin expiración (SET sin TTL).
		return s.rdb.Set(ctx, key, token, t.Lifetime).Err()
	})
	if err != nil {
		return err
	}

	logger.From(ctx).Debug("token stored",
		logger.Backend("redis"), logger.Tenant(tenantName), logger.UID(uid))
	return nil
}

func (s *RedisStore) Validate(ctx context.Context, tenantName, uid, token string) (bool, error) {
	if _, err := s.resolve(tenantName, uid, token); err != nil {
		return false, err
	}

	key := s.key(tenantName, uid)
	var n int64
	err := s.exec(ctx, "validate", func() error {
		res, err := validateScript.Run(ctx, s.rdb, []string{key}, token).Int64()
		if err != nil {
			return err
		}
		n = res
		return nil
	})
	if err != nil {
		return false, err
	}

	valid := n == 1
	logger.From(ctx).Debug("token validated",
		logger.Backend("redis"), logger.Tenant(tenantName), logger.UID(uid),
		logger.String("valid", fmt.Sprint(valid)))
	return valid, nil
}

// RemoveExpired no está soportado: el servidor expira las keys nativamente.
// Señalarlo explícitamente evita que un caller crea que barrió algo.
func (s *RedisStore) RemoveExpired(ctx context.Context) error {
	return fmt.Errorf("%w: redis expires entries natively", ErrNotSupported)
}

func (s *RedisStore) RequiresReaper() bool { return false }

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// key codifica (tenant, uid) de forma no ambigua: QueryEscape elimina los
// ":" de los componentes, así un tenant "a:b" no colisiona con otro "a".
func (s *RedisStore) key(tenantName, uid string) string {
	return s.prefix + ":" + url.QueryEscape(tenantName) + ":" + url.QueryEscape(uid)
}

// resolve valida los argumentos y retorna el tenant.
func (s *RedisStore) resolve(tenantName, uid, token string) (tenant.Tenant, error) {
	if uid == "" {
		return tenant.Tenant{}, fmt.Errorf("%w: uid must not be empty", ErrInvalidArgument)
	}
	if token == "" {
		return tenant.Tenant{}, fmt.Errorf("%w: token must not be empty", ErrInvalidArgument)
	}
	t, ok := s.reg.ByName(tenantName)
	if !ok {
		return tenant.Tenant{}, fmt.Errorf("%w: unknown tenant %q", ErrInvalidArgument, tenantName)
	}
	return t, nil
}

// exec corre una operación con el handshake lazy y un único retry ante
// errores de autenticación.
func (s *RedisStore) exec(ctx context.Context, op string, fn func() error) error {
	if err := s.ensureAuth(ctx); err != nil {
		return err
	}
	err := fn()
	if err != nil && isAuthError(err) {
		logger.From(ctx).Warn("redis authentication error, retrying once",
			logger.String("op", op), logger.Err(err))
		s.authed.Store(false)
		if aerr := s.ensureAuth(ctx); aerr != nil {
			return aerr
		}
		err = fn()
	}
	if err != nil {
		if isAuthError(err) {
			logger.From(ctx).Error("redis authentication failed", logger.Err(err))
			return fmt.Errorf("%w: redis %s: %v", ErrAuthFailed, op, err)
		}
		logger.From(ctx).Error("redis operation failed",
			logger.String("op", op), logger.Err(err))
		return unavailable("redis", op, err)
	}
	return nil
}

// ensureAuth verifica la conexión (y la autenticación, si el servidor la
// exige) la primera vez que se usa el store.
func (s *RedisStore) ensureAuth(ctx context.Context) error {
	if s.authed.Load() {
		return nil
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		if isAuthError(err) {
			logger.From(ctx).Error("redis authentication failed", logger.Err(err))
			return fmt.Errorf("%w: redis ping: %v", ErrAuthFailed, err)
		}
		return unavailable("redis", "ping", err)
	}
	s.authed.Store(true)
	return nil
}

// isAuthError reconoce respuestas de auth del servidor (NOAUTH cuando falta
// el password, WRONGPASS cuando es incorrecto).
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NOAUTH") ||
		strings.Contains(msg, "WRONGPASS") ||
		strings.Contains(msg, "invalid password") ||
		strings.Contains(msg, "Client sent AUTH")
}

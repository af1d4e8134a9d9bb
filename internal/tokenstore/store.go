package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/otpgate/internal/tenant"
)

// Store es el contrato de almacenamiento de OTPs, polimórfico sobre los
// tres backends. El controller layer y el reaper dependen solo de esta
// interfaz, nunca de un backend concreto.
type Store interface {
	// Put guarda token para (tenant, uid) con expiración now + lifetime del
	// tenant. Sobrescribe cualquier entrada viva para esa key. Si falla con
	// ErrStoreUnavailable el caller no debe asumir que el token persiste.
	Put(ctx context.Context, tenantName, uid, token string) error

	// Validate retorna true si y solo si existe una entrada viva y no
	// expirada para (tenant, uid) cuyo valor es token. En caso de éxito la
	// entrada se elimina atómicamente (single-use): un replay del mismo
	// token retorna false. Entradas observadas expiradas se eliminan de
	// forma oportunista.
	Validate(ctx context.Context, tenantName, uid, token string) (bool, error)

	// RemoveExpired purga en batch todas las entradas vencidas. Retorna
	// ErrNotSupported en backends donde el medio expira nativamente.
	RemoveExpired(ctx context.Context) error

	// RequiresReaper reporta si el backend necesita que el reaper
	// compartido invoque RemoveExpired periódicamente.
	RequiresReaper() bool

	// Close libera los recursos del backend (pool, conexiones, mapas).
	Close() error
}

// Config selecciona y configura el backend del tokenstore.
type Config struct {
	// Kind: "local" | "postgres" | "redis". Default: "local".
	Kind string

	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig configura el backend relacional.
type PostgresConfig struct {
	DSN string

	// Table es el nombre de la tabla de tokens. Default: "tokenstore".
	Table string

	// MaxConns acota el pool de conexiones. 0 = default de pgxpool.
	MaxConns int32

	// MinConns mantiene conexiones pre-abiertas. 0 = default.
	MinConns int32

	// SweepInterval es el intervalo del sweep propio del backend,
	// independiente del reaper compartido (varias instancias pueden
	// compartir una tabla). Default: 60s.
	SweepInterval time.Duration
}

// RedisConfig configura el backend remote-cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// KeyPrefix antecede todas las keys. Default: "otp".
	KeyPrefix string
}

// New crea el Store según la configuración. El registry provee la tabla de
// tenants (lifetimes) y es read-only después de la carga.
func New(ctx context.Context, cfg Config, reg *tenant.Registry) (Store, error) {
	switch cfg.Kind {
	case "local", "":
		return NewLocal(reg), nil
	case "postgres":
		return NewPostgres(ctx, cfg.Postgres, reg)
	case "redis":
		return NewRedis(cfg.Redis, reg), nil
	default:
		return nil, fmt.Errorf("%w: unknown tokenstore kind %q", ErrInvalidArgument, cfg.Kind)
	}
}

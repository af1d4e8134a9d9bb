package tokenstore

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/otpgate/internal/observability/logger"
	"github.com/dropDatabas3/otpgate/internal/tenant"
)

const (
	defaultTable         = "tokenstore"
	defaultSweepInterval = 60 * time.Second
)

// Los nombres de tabla no son parametrizables en SQL; se validan acá.
var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresStore guarda los tokens en una tabla compartida
// (tenant, uid, token, expiration). La atomicidad de Validate se apoya en
// el row-level locking de la base: un único DELETE condicional cuyo
// rows-affected es el resultado, sin read-then-write.
//
// La key primaria es (tenant, uid), así un Put fresco reemplaza la entrada
// viva en un solo statement (upsert). La expiración se guarda como epoch
// millis.
//
// Varias instancias pueden compartir la tabla, por eso el backend corre su
// propio sweep periódico en lugar de depender del reaper compartido.
// Disciplina transaccional: auto-commit por statement, uniforme.
type PostgresStore struct {
	pool  *pgxpool.Pool
	reg   *tenant.Registry
	table string

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// NewPostgres abre el pool (acotado, con adquisición bloqueante) y arranca
// el sweep propio del backend.
func NewPostgres(ctx context.Context, cfg PostgresConfig, reg *tenant.Registry) (*PostgresStore, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrInvalidArgument, table)
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %v", ErrInvalidArgument, err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, unavailable("postgres", "connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("postgres", "ping", err)
	}

	s := &PostgresStore{
		pool:      pool,
		reg:       reg,
		table:     table,
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go s.sweepLoop(interval)

	return s, nil
}

// EnsureSchema crea la tabla de tokens si no existe. Pensado para el flag
// de migración del server, no corre automáticamente.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			tenant     TEXT   NOT NULL,
			uid        TEXT   NOT NULL,
			token      TEXT   NOT NULL,
			expiration BIGINT NOT NULL,
			PRIMARY KEY (tenant, uid)
		)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return unavailable("postgres", "ensure schema", err)
	}
	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_expiration_idx ON %s (expiration)`,
		s.table, s.table)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return unavailable("postgres", "ensure schema", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, tenantName, uid, token string) error {
	t, err := s.resolve(tenantName, uid, token)
	if err != nil {
		return err
	}

	expiration := int64(math.MaxInt64)
	if t.Lifetime > 0 {
		expiration = time.Now().Add(t.Lifetime).UnixMilli()
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (tenant, uid, token, expiration)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant, uid)
		DO UPDATE SET token = EXCLUDED.token, expiration = EXCLUDED.expiration`,
		s.table)
	if _, err := s.pool.Exec(ctx, q, tenantName, uid, token, expiration); err != nil {
		logger.From(ctx).Error("postgres put failed",
			logger.Tenant(tenantName), logger.UID(uid), logger.Err(err))
		return unavailable("postgres", "put", err)
	}

	logger.From(ctx).Debug("token stored",
		logger.Backend("postgres"), logger.Tenant(tenantName), logger.UID(uid))
	return nil
}

func (s *PostgresStore) Validate(ctx context.Context, tenantName, uid, token string) (bool, error) {
	if _, err := s.resolve(tenantName, uid, token); err != nil {
		return false, err
	}

	q := fmt.Sprintf(
		`DELETE FROM %s WHERE tenant = $1 AND uid = $2 AND token = $3 AND expiration >= $4`,
		s.table)
	ct, err := s.pool.Exec(ctx, q, tenantName, uid, token, time.Now().UnixMilli())
	if err != nil {
		logger.From(ctx).Error("postgres validate failed",
			logger.Tenant(tenantName), logger.UID(uid), logger.Err(err))
		return false, unavailable("postgres", "validate", err)
	}

	valid := ct.RowsAffected() > 0
	logger.From(ctx).Debug("token validated",
		logger.Backend("postgres"), logger.Tenant(tenantName), logger.UID(uid),
		logger.String("valid", fmt.Sprint(valid)))
	return valid, nil
}

func (s *PostgresStore) RemoveExpired(ctx context.Context) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE expiration < $1`, s.table)
	ct, err := s.pool.Exec(ctx, q, time.Now().UnixMilli())
	if err != nil {
		return unavailable("postgres", "remove expired", err)
	}
	if n := ct.RowsAffected(); n > 0 {
		logger.From(ctx).Debug("expired tokens removed",
			logger.Backend("postgres"), logger.Removed(n))
	}
	return nil
}

// RequiresReaper retorna false: el backend corre su propio sweep (la tabla
// puede estar compartida entre instancias).
func (s *PostgresStore) RequiresReaper() bool { return false }

// Close detiene el sweep y cierra el pool. Idempotente sobre el pool.
func (s *PostgresStore) Close() error {
	select {
	case <-s.stopSweep:
		// ya cerrado
	default:
		close(s.stopSweep)
		<-s.sweepDone
	}
	s.pool.Close()
	return nil
}

// Stats expone un snapshot del pool para diagnóstico.
func (s *PostgresStore) Stats() *pgxpool.Stat {
	return s.pool.Stat()
}

func (s *PostgresStore) sweepLoop(interval time.Duration) {
	defer close(s.sweepDone)
	log := logger.L().With(logger.Component("pg-sweep"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if err := s.RemoveExpired(ctx); err != nil {
				log.Warn("sweep cycle failed", logger.Err(err))
			}
			cancel()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *PostgresStore) resolve(tenantName, uid, token string) (tenant.Tenant, error) {
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

package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/otpgate/internal/tenant"
	"github.com/dropDatabas3/otpgate/internal/tokenstore"
)

// Config es la configuración completa del servicio, cargada de YAML.
type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Tokenstore struct {
		// local | postgres | redis
		Kind     string `yaml:"kind"`
		Postgres struct {
			DSN           string `yaml:"dsn"`
			Table         string `yaml:"table"`
			MaxOpenConns  int    `yaml:"max_open_conns"`
			MinConns      int    `yaml:"min_conns"`
			SweepInterval string `yaml:"sweep_interval"`
		} `yaml:"postgres"`
		Redis struct {
			Host      string `yaml:"host"`
			Port      int    `yaml:"port"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix"`
		} `yaml:"redis"`
	} `yaml:"tokenstore"`

	Reaper struct {
		Interval string `yaml:"interval"`
	} `yaml:"reaper"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
		// Blocking: esperar el resultado del envío antes de responder.
		// false = fire-and-forget en una goroutine.
		Blocking bool `yaml:"blocking"`
	} `yaml:"smtp"`

	Text struct {
		// ProviderHosts son los gateways SMS-por-email: el token se manda a
		// <número>@<host> por cada host configurado (ej. vtext.com).
		ProviderHosts []string `yaml:"provider_hosts"`
	} `yaml:"text"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Send    struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"send"`
	} `yaml:"rate"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`

	// Clients es la tabla de tenants, indexada por nombre.
	Clients map[string]ClientConfig `yaml:"clients"`
}

// ClientConfig es la configuración YAML de un tenant.
// Defaults (jotp): sin password, longitud 8/8, lifetime 60s.
type ClientConfig struct {
	Password      string `yaml:"password"`
	MinOTPLength  int    `yaml:"min_otp_length"`
	MaxOTPLength  int    `yaml:"max_otp_length"`
	TokenLifetime string `yaml:"token_lifetime"`
}

// Load lee y parsea el archivo, aplica defaults y valida.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Tokenstore.Kind == "" {
		c.Tokenstore.Kind = "local"
	}
	if c.Tokenstore.Postgres.Table == "" {
		c.Tokenstore.Postgres.Table = "tokenstore"
	}
	if c.Tokenstore.Redis.Port == 0 {
		c.Tokenstore.Redis.Port = 6379
	}
	if c.Reaper.Interval == "" {
		c.Reaper.Interval = "60s"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 25
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Rate.Send.Limit == 0 {
		c.Rate.Send.Limit = 5
	}
	if c.Rate.Send.Window == "" {
		c.Rate.Send.Window = "10m"
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Tokenstore.Kind {
	case "local", "postgres", "redis":
	default:
		return fmt.Errorf("config: unknown tokenstore kind %q", c.Tokenstore.Kind)
	}
	if c.Tokenstore.Kind == "postgres" && c.Tokenstore.Postgres.DSN == "" {
		return fmt.Errorf("config: tokenstore.postgres.dsn is required for the postgres backend")
	}
	if c.Tokenstore.Kind == "redis" && c.Tokenstore.Redis.Host == "" {
		return fmt.Errorf("config: tokenstore.redis.host is required for the redis backend")
	}
	if len(c.Clients) == 0 {
		return fmt.Errorf("config: at least one client must be configured")
	}
	for _, d := range []struct {
		name, val string
	}{
		{"reaper.interval", c.Reaper.Interval},
		{"rate.send.window", c.Rate.Send.Window},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	return nil
}

// ReaperInterval retorna el intervalo del reaper ya parseado.
// Load valida el formato, así que acá no puede fallar.
func (c *Config) ReaperInterval() time.Duration {
	d, _ := time.ParseDuration(c.Reaper.Interval)
	return d
}

// RateWindow retorna la ventana del rate limit de envío.
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Send.Window)
	return d
}

// Tenants materializa la tabla de clients como tenants del registry,
// aplicando los defaults de jotp por campo ausente.
func (c *Config) Tenants() ([]tenant.Tenant, error) {
	names := make([]string, 0, len(c.Clients))
	for name := range c.Clients {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]tenant.Tenant, 0, len(names))
	for _, name := range names {
		cc := c.Clients[name]
		t := tenant.Tenant{
			Name:         name,
			Secret:       cc.Password,
			MinOTPLength: cc.MinOTPLength,
			MaxOTPLength: cc.MaxOTPLength,
			Lifetime:     tenant.DefaultLifetime,
		}
		if t.MinOTPLength == 0 {
			t.MinOTPLength = tenant.DefaultMinOTPLength
		}
		if t.MaxOTPLength == 0 {
			t.MaxOTPLength = tenant.DefaultMaxOTPLength
		}
		if cc.TokenLifetime != "" {
			d, err := time.ParseDuration(cc.TokenLifetime)
			if err != nil {
				return nil, fmt.Errorf("config: client %q: token_lifetime: %w", name, err)
			}
			t.Lifetime = d
		}
		out = append(out, t)
	}
	return out, nil
}

// StoreConfig traduce el bloque tokenstore a la configuración del backend.
func (c *Config) StoreConfig() tokenstore.Config {
	var sc tokenstore.Config
	sc.Kind = c.Tokenstore.Kind
	sc.Postgres.DSN = c.Tokenstore.Postgres.DSN
	sc.Postgres.Table = c.Tokenstore.Postgres.Table
	sc.Postgres.MaxConns = int32(c.Tokenstore.Postgres.MaxOpenConns)
	sc.Postgres.MinConns = int32(c.Tokenstore.Postgres.MinConns)
	if c.Tokenstore.Postgres.SweepInterval != "" {
		if d, err := time.ParseDuration(c.Tokenstore.Postgres.SweepInterval); err == nil {
			sc.Postgres.SweepInterval = d
		}
	}
	sc.Redis.Host = c.Tokenstore.Redis.Host
	sc.Redis.Port = c.Tokenstore.Redis.Port
	sc.Redis.Password = c.Tokenstore.Redis.Password
	sc.Redis.DB = c.Tokenstore.Redis.DB
	sc.Redis.KeyPrefix = c.Tokenstore.Redis.KeyPrefix
	return sc
}

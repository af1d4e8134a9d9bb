package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/otpgate/internal/tenant"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
clients:
  acme: {}
`)
	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "local", c.Tokenstore.Kind)
	require.Equal(t, "tokenstore", c.Tokenstore.Postgres.Table)
	require.Equal(t, 6379, c.Tokenstore.Redis.Port)
	require.Equal(t, 60*time.Second, c.ReaperInterval())
	require.Equal(t, 25, c.SMTP.Port)
	require.Equal(t, "auto", c.SMTP.TLS)
	require.Equal(t, 5, c.Rate.Send.Limit)
	require.Equal(t, 10*time.Minute, c.RateWindow())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  app_env: prod
server:
  addr: ":9090"
tokenstore:
  kind: redis
  redis:
    host: cache.internal
    port: 6380
    password: hunter2
    key_prefix: otp
reaper:
  interval: 30s
smtp:
  host: smtp.example.com
  port: 587
  from: otp@example.com
  tls: starttls
  blocking: true
text:
  provider_hosts: [vtext.com, txt.att.net]
clients:
  acme:
    password: s3cret
    min_otp_length: 6
    max_otp_length: 10
    token_lifetime: 2m
`)
	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "prod", c.App.Env)
	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, "redis", c.Tokenstore.Kind)
	require.Equal(t, 30*time.Second, c.ReaperInterval())
	require.Equal(t, []string{"vtext.com", "txt.att.net"}, c.Text.ProviderHosts)
	require.True(t, c.SMTP.Blocking)

	sc := c.StoreConfig()
	require.Equal(t, "redis", sc.Kind)
	require.Equal(t, "cache.internal", sc.Redis.Host)
	require.Equal(t, 6380, sc.Redis.Port)
	require.Equal(t, "hunter2", sc.Redis.Password)
	require.Equal(t, "otp", sc.Redis.KeyPrefix)
}

func TestTenantsAppliesClientDefaults(t *testing.T) {
	path := writeConfig(t, `
clients:
  bare: {}
  tuned:
    password: s3cret
    min_otp_length: 4
    max_otp_length: 12
    token_lifetime: 5m
`)
	c, err := Load(path)
	require.NoError(t, err)

	tenants, err := c.Tenants()
	require.NoError(t, err)
	require.Len(t, tenants, 2)

	// Tenants() ordena por nombre.
	bare, tuned := tenants[0], tenants[1]
	require.Equal(t, "bare", bare.Name)
	require.Empty(t, bare.Secret)
	require.Equal(t, tenant.DefaultMinOTPLength, bare.MinOTPLength)
	require.Equal(t, tenant.DefaultMaxOTPLength, bare.MaxOTPLength)
	require.Equal(t, tenant.DefaultLifetime, bare.Lifetime)

	require.Equal(t, "tuned", tuned.Name)
	require.Equal(t, "s3cret", tuned.Secret)
	require.Equal(t, 4, tuned.MinOTPLength)
	require.Equal(t, 12, tuned.MaxOTPLength)
	require.Equal(t, 5*time.Minute, tuned.Lifetime)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name, yaml string
	}{
		{"unknown kind", `
tokenstore:
  kind: dynamo
clients:
  acme: {}
`},
		{"postgres without dsn", `
tokenstore:
  kind: postgres
clients:
  acme: {}
`},
		{"redis without host", `
tokenstore:
  kind: redis
clients:
  acme: {}
`},
		{"no clients", `
server:
  addr: ":8080"
`},
		{"bad reaper interval", `
reaper:
  interval: pronto
clients:
  acme: {}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestTenantsRejectsBadLifetime(t *testing.T) {
	path := writeConfig(t, `
clients:
  acme:
    token_lifetime: forever
`)
	c, err := Load(path)
	require.NoError(t, err)

	_, err = c.Tenants()
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

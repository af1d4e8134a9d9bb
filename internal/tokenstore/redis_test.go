package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/otpgate/internal/tenant"
)

func newTestRedis(t *testing.T, lifetime time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisWithClient(rdb, testRegistry(t, lifetime)), mr
}

func TestRedisSingleUse(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t, time.Minute)

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	valid, err := s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || !valid {
		t.Fatalf("first validate: valid=%v err=%v", valid, err)
	}
	valid, err = s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || valid {
		t.Fatalf("replay must be invalid: valid=%v err=%v", valid, err)
	}
}

func TestRedisWrongTokenLeavesEntryLive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t, time.Minute)

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	if valid, err := s.Validate(ctx, "acme", "alice@example.com", "WRONG1"); err != nil || valid {
		t.Fatalf("wrong token: valid=%v err=%v", valid, err)
	}
	if valid, err := s.Validate(ctx, "acme", "alice@example.com", "ABC123"); err != nil || !valid {
		t.Fatalf("correct token still valid: valid=%v err=%v", valid, err)
	}
}

func TestRedisNativeExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t, 5*time.Second)

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	// El servidor expira la key solo; no hay sweep que correr.
	mr.FastForward(6 * time.Second)

	valid, err := s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || valid {
		t.Fatalf("expired token: valid=%v err=%v", valid, err)
	}
}

func TestRedisPutReplacesLiveEntry(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t, time.Minute)

	if err := s.Put(ctx, "acme", "u", "OLD111"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "acme", "u", "NEW222"); err != nil {
		t.Fatal(err)
	}
	if valid, _ := s.Validate(ctx, "acme", "u", "OLD111"); valid {
		t.Fatal("replaced token must not validate")
	}
	if valid, _ := s.Validate(ctx, "acme", "u", "NEW222"); !valid {
		t.Fatal("fresh token must validate")
	}
}

func TestRedisRemoveExpiredNotSupported(t *testing.T) {
	s, _ := newTestRedis(t, time.Minute)
	if err := s.RemoveExpired(context.Background()); !IsNotSupported(err) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	if s.RequiresReaper() {
		t.Fatal("redis expires natively, no reaper needed")
	}
}

func TestRedisKeyDisambiguation(t *testing.T) {
	// Un tenant "a:b" con uid "c" no debe colisionar con el tenant "a"
	// y uid "b:c" (mismo string si la key se armara por concatenación).
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg, err := tenant.NewRegistry([]tenant.Tenant{
		{Name: "a:b", MinOTPLength: 6, MaxOTPLength: 6, Lifetime: time.Minute},
		{Name: "a", MinOTPLength: 6, MaxOTPLength: 6, Lifetime: time.Minute},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := NewRedisWithClient(rdb, reg)

	if err := s.Put(ctx, "a:b", "c", "TOKEN1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "a", "b:c", "TOKEN2"); err != nil {
		t.Fatal(err)
	}

	if valid, _ := s.Validate(ctx, "a:b", "c", "TOKEN2"); valid {
		t.Fatal("cross-tenant key collision")
	}
	if valid, _ := s.Validate(ctx, "a:b", "c", "TOKEN1"); !valid {
		t.Fatal("tenant a:b token must validate")
	}
	if valid, _ := s.Validate(ctx, "a", "b:c", "TOKEN2"); !valid {
		t.Fatal("tenant a token must validate")
	}
}

func TestRedisAuthRequired(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	mr.RequireAuth("hunter2")

	// Sin password: la falla es de autenticación y se reporta como
	// store unavailable, nunca como "token inválido".
	bad := NewRedis(RedisConfig{Host: mr.Host(), Port: mustAtoi(t, mr.Port())}, testRegistry(t, time.Minute))
	t.Cleanup(func() { _ = bad.Close() })
	if err := bad.Put(ctx, "acme", "u", "ABC123"); !IsUnavailable(err) {
		t.Fatalf("expected store unavailable on missing auth, got %v", err)
	}

	// Con el password correcto todo funciona.
	good := NewRedis(RedisConfig{Host: mr.Host(), Port: mustAtoi(t, mr.Port()), Password: "hunter2"}, testRegistry(t, time.Minute))
	t.Cleanup(func() { _ = good.Close() })
	if err := good.Put(ctx, "acme", "u", "ABC123"); err != nil {
		t.Fatal(err)
	}
	if valid, err := good.Validate(ctx, "acme", "u", "ABC123"); err != nil || !valid {
		t.Fatalf("authed validate: valid=%v err=%v", valid, err)
	}
}

func TestRedisServerDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisWithClient(rdb, testRegistry(t, time.Minute))

	mr.Close()

	err := s.Put(ctx, "acme", "u", "ABC123")
	if !IsUnavailable(err) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	if IsInvalidArgument(err) {
		t.Fatal("infrastructure failure must not look like an argument error")
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

package tokenstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/otpgate/internal/tenant"
)

func testRegistry(t *testing.T, lifetime time.Duration) *tenant.Registry {
	t.Helper()
	reg, err := tenant.NewRegistry([]tenant.Tenant{
		{Name: "acme", MinOTPLength: 6, MaxOTPLength: 6, Lifetime: lifetime},
		{Name: "globex", MinOTPLength: 8, MaxOTPLength: 8, Lifetime: lifetime},
	})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestLocalSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, time.Minute))

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	valid, err := s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || !valid {
		t.Fatalf("first validate: valid=%v err=%v", valid, err)
	}

	// Replay: el token fue consumido.
	valid, err = s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || valid {
		t.Fatalf("replay must be invalid: valid=%v err=%v", valid, err)
	}
}

func TestLocalWrongTokenLeavesEntryLive(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, time.Minute))

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	valid, err := s.Validate(ctx, "acme", "alice@example.com", "WRONG1")
	if err != nil || valid {
		t.Fatalf("wrong token: valid=%v err=%v", valid, err)
	}

	// La entrada original sigue viva y validable.
	valid, err = s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || !valid {
		t.Fatalf("correct token after wrong attempt: valid=%v err=%v", valid, err)
	}
}

func TestLocalPutReplacesLiveEntry(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, time.Minute))

	if err := s.Put(ctx, "acme", "alice@example.com", "OLD111"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "acme", "alice@example.com", "NEW222"); err != nil {
		t.Fatal(err)
	}

	if valid, _ := s.Validate(ctx, "acme", "alice@example.com", "OLD111"); valid {
		t.Fatal("replaced token must not validate")
	}
	if valid, _ := s.Validate(ctx, "acme", "alice@example.com", "NEW222"); !valid {
		t.Fatal("fresh token must validate")
	}
}

func TestLocalExpiryWithoutSweep(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, 30*time.Millisecond))

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)

	// Expirado aunque nadie llamó RemoveExpired.
	valid, err := s.Validate(ctx, "acme", "alice@example.com", "ABC123")
	if err != nil || valid {
		t.Fatalf("expired token: valid=%v err=%v", valid, err)
	}
}

func TestLocalRemoveExpiredKeepsLiveEntries(t *testing.T) {
	ctx := context.Background()
	reg, err := tenant.NewRegistry([]tenant.Tenant{
		{Name: "short", MinOTPLength: 6, MaxOTPLength: 6, Lifetime: 30 * time.Millisecond},
		{Name: "long", MinOTPLength: 6, MaxOTPLength: 6, Lifetime: time.Minute},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := NewLocal(reg)

	if err := s.Put(ctx, "short", "u1", "AAAAAA"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "long", "u2", "BBBBBB"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(60 * time.Millisecond)
	if err := s.RemoveExpired(ctx); err != nil {
		t.Fatal(err)
	}

	if valid, _ := s.Validate(ctx, "short", "u1", "AAAAAA"); valid {
		t.Fatal("expired entry must be gone after sweep")
	}
	if valid, _ := s.Validate(ctx, "long", "u2", "BBBBBB"); !valid {
		t.Fatal("live entry must survive the sweep")
	}
}

func TestLocalTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, time.Minute))

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	// El mismo uid bajo otro tenant no ve el token.
	valid, err := s.Validate(ctx, "globex", "alice@example.com", "ABC123")
	if err != nil || valid {
		t.Fatalf("cross-tenant validate: valid=%v err=%v", valid, err)
	}
}

func TestLocalInvalidArguments(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, time.Minute))

	if err := s.Put(ctx, "nope", "u", "ABC123"); !IsInvalidArgument(err) {
		t.Fatalf("unknown tenant: %v", err)
	}
	if err := s.Put(ctx, "acme", "", "ABC123"); !IsInvalidArgument(err) {
		t.Fatalf("empty uid: %v", err)
	}
	if _, err := s.Validate(ctx, "acme", "u", ""); !IsInvalidArgument(err) {
		t.Fatalf("empty token: %v", err)
	}
}

func TestLocalConcurrentValidateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(testRegistry(t, time.Minute))

	if err := s.Put(ctx, "acme", "alice@example.com", "ABC123"); err != nil {
		t.Fatal(err)
	}

	const goroutines = 64
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			valid, err := s.Validate(ctx, "acme", "alice@example.com", "ABC123")
			if err != nil {
				t.Errorf("validate: %v", err)
				return
			}
			if valid {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestLocalRequiresReaper(t *testing.T) {
	s := NewLocal(testRegistry(t, time.Minute))
	if !s.RequiresReaper() {
		t.Fatal("the in-memory backend needs the reaper")
	}
}

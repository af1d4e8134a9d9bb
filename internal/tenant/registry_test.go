package tenant

import (
	"testing"
	"time"
)

func validTenant(name string) Tenant {
	return Tenant{
		Name:         name,
		MinOTPLength: 6,
		MaxOTPLength: 8,
		Lifetime:     time.Minute,
	}
}

func TestRegistryByName(t *testing.T) {
	reg, err := NewRegistry([]Tenant{validTenant("acme"), validTenant("globex")})
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 tenants, got %d", reg.Len())
	}
	if _, ok := reg.ByName("acme"); !ok {
		t.Fatal("acme should resolve")
	}
	if _, ok := reg.ByName("nope"); ok {
		t.Fatal("unknown tenant should not resolve")
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "acme" || names[1] != "globex" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	cases := []Tenant{
		{Name: "", MinOTPLength: 6, MaxOTPLength: 8, Lifetime: time.Minute},
		{Name: "bad-min", MinOTPLength: 0, MaxOTPLength: 8, Lifetime: time.Minute},
		{Name: "max-lt-min", MinOTPLength: 8, MaxOTPLength: 6, Lifetime: time.Minute},
		{Name: "neg-lifetime", MinOTPLength: 6, MaxOTPLength: 8, Lifetime: -time.Second},
	}
	for _, tc := range cases {
		if _, err := NewRegistry([]Tenant{tc}); err == nil {
			t.Fatalf("expected error for tenant %+v", tc)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry([]Tenant{validTenant("acme"), validTenant("acme")}); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestAuthorize(t *testing.T) {
	public := validTenant("public")
	if !public.Authorize("") || !public.Authorize("anything") {
		t.Fatal("a tenant without secret is public")
	}

	private := validTenant("private")
	private.Secret = "s3cret"
	if !private.Authorize("s3cret") {
		t.Fatal("correct secret must authorize")
	}
	if private.Authorize("wrong") || private.Authorize("") {
		t.Fatal("wrong secret must not authorize")
	}
}

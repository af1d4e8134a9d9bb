package validation

import "testing"

func TestValidEmail(t *testing.T) {
	valids := []string{
		"alice@example.com",
		"alice.smith@example.co",
		"a+tag@sub.example.org",
	}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}

	invalids := []string{
		"",
		"alice",
		"alice@",
		"@example.com",
		"alice@example",
		"alice @example.com",
	}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidPhone(t *testing.T) {
	valids := []string{"5551234567", "555-123-4567", "555123-4567"}
	for _, v := range valids {
		if !ValidPhone(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}

	invalids := []string{"", "555-1234", "phone", "55512345678", "555 123 4567"}
	for _, v := range invalids {
		if ValidPhone(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("555-123-4567"); got != "5551234567" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizePhone("5551234567"); got != "5551234567" {
		t.Fatalf("got %q", got)
	}
}

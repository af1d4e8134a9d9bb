// Package tenant define los clients (tenants) del servicio OTP y el
// registry inmutable que los resuelve por nombre.
//
// Un tenant es un scope de configuración aislado: cada aplicación cliente
// tiene su propio pool de tokens, con su propia longitud de OTP y su propio
// lifetime. Los tenants nunca comparten namespace de tokens.
package tenant

import (
	"crypto/subtle"
	"fmt"
	"time"
)

// Defaults para un tenant sin configuración explícita.
const (
	DefaultMinOTPLength = 8
	DefaultMaxOTPLength = 8
	DefaultLifetime     = 60 * time.Second
)

// Tenant es la configuración de un client. Se construye una sola vez al
// cargar la configuración y es inmutable durante la vida del proceso.
type Tenant struct {
	// Name identifica al tenant. Único.
	Name string

	// Secret es el shared secret opcional que debe presentar quien pide
	// tokens bajo este tenant. Vacío = tenant público.
	Secret string

	// MinOTPLength y MaxOTPLength acotan la longitud del token generado.
	// Invariante: 1 <= MinOTPLength <= MaxOTPLength.
	MinOTPLength int
	MaxOTPLength int

	// Lifetime es la vida máxima de un token emitido bajo este tenant.
	Lifetime time.Duration
}

// Authorize compara el secret presentado con el del tenant en tiempo
// constante. Un tenant sin secret acepta cualquier valor.
func (t Tenant) Authorize(secret string) bool {
	if t.Secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(t.Secret), []byte(secret)) == 1
}

func (t Tenant) validate() error {
	if t.Name == "" {
		return fmt.Errorf("tenant: name must not be empty")
	}
	if t.MinOTPLength < 1 {
		return fmt.Errorf("tenant %q: min otp length must be >= 1 (got %d)", t.Name, t.MinOTPLength)
	}
	if t.MaxOTPLength < t.MinOTPLength {
		return fmt.Errorf("tenant %q: max otp length %d < min otp length %d", t.Name, t.MaxOTPLength, t.MinOTPLength)
	}
	if t.Lifetime < 0 {
		return fmt.Errorf("tenant %q: lifetime must not be negative", t.Name)
	}
	return nil
}

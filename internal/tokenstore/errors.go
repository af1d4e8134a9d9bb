package tokenstore

import (
	"errors"
	"fmt"
)

// Errores del tokenstore.
var (
	// ErrInvalidArgument indica inputs malformados (tenant desconocido,
	// identificadores vacíos). Nunca se reintenta.
	ErrInvalidArgument = errors.New("tokenstore: invalid argument")

	// ErrStoreUnavailable indica una falla de conectividad, autenticación o
	// query en el backend. Siempre distinguible de "token inválido": el
	// caller debe fallar cerrado, nunca asumir válido ni inválido.
	ErrStoreUnavailable = errors.New("tokenstore: store unavailable")

	// ErrAuthFailed indica que el backend remoto rechazó las credenciales.
	// Para los callers se comporta como ErrStoreUnavailable (lo envuelve),
	// pero se loggea distinto.
	ErrAuthFailed = fmt.Errorf("%w: authentication failed", ErrStoreUnavailable)

	// ErrNotSupported indica que el backend no implementa la operación
	// (RemoveExpired donde el medio expira entradas nativamente).
	ErrNotSupported = errors.New("tokenstore: operation not supported by backend")
)

// IsUnavailable reporta si err es una falla de infraestructura del backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsNotSupported reporta si err señala una operación no soportada.
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}

// IsInvalidArgument reporta si err es una precondición violada por el caller.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// unavailable envuelve un error del backend como ErrStoreUnavailable,
// preservando el mensaje original.
func unavailable(backend, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrStoreUnavailable, backend, op, err)
}

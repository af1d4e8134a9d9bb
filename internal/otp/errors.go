package otp

import "errors"

// ErrInvalidLength indica una precondición violada en Generate:
// longitudes fuera de rango o max < min.
var ErrInvalidLength = errors.New("otp: invalid length bounds")

// Package otp genera one-time passwords aleatorios.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// alphabet son los 36 símbolos válidos de un OTP: mayúsculas y dígitos.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produce tokens aleatorios usando una fuente criptográfica
// (crypto/rand). No garantiza unicidad entre llamadas; si el caller la
// necesita, es su responsabilidad.
type Generator struct{}

// NewGenerator crea un Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate retorna un token aleatorio con longitud uniforme en
// [minLength, maxLength] inclusive, compuesto solo por mayúsculas y dígitos.
// Falla con ErrInvalidLength si maxLength < minLength o minLength < 1.
func (g *Generator) Generate(minLength, maxLength int) (string, error) {
	if minLength < 1 {
		return "", fmt.Errorf("%w: minimum length must be >= 1 (got %d)", ErrInvalidLength, minLength)
	}
	if maxLength < minLength {
		return "", fmt.Errorf("%w: maximum length %d < minimum length %d", ErrInvalidLength, maxLength, minLength)
	}

	length := minLength
	if maxLength > minLength {
		n, err := randInt(maxLength - minLength + 1)
		if err != nil {
			return "", err
		}
		length += n
	}

	buf := make([]byte, length)
	for i := range buf {
		idx, err := randInt(len(alphabet))
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx]
	}
	return string(buf), nil
}

// randInt retorna un entero uniforme en [0, n) desde crypto/rand.
// rand.Int ya hace rejection sampling, así que no hay sesgo por módulo.
func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("otp: random source failed: %w", err)
	}
	return int(v.Int64()), nil
}

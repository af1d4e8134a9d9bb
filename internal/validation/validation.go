// Package validation valida los inputs de los endpoints OTP.
package validation

import "regexp"

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)
	phoneRe = regexp.MustCompile(`^(\d{3})-?(\d{3})-?(\d{4})$`)
)

// ValidEmail reporta si addr parece una dirección de email entregable.
func ValidEmail(addr string) bool {
	return emailRe.MatchString(addr)
}

// ValidPhone reporta si number es un número de teléfono de 10 dígitos
// (formato US, con o sin guiones).
func ValidPhone(number string) bool {
	return phoneRe.MatchString(number)
}

// NormalizePhone quita los guiones de un número ya validado.
func NormalizePhone(number string) string {
	out := make([]byte, 0, len(number))
	for i := 0; i < len(number); i++ {
		if number[i] != '-' {
			out = append(out, number[i])
		}
	}
	return string(out)
}

// Package email entrega tokens generados por email y por gateway
// SMS-sobre-email. La entrega no es parte del core: el tokenstore ya
// persistió el token cuando estos senders corren.
package email

// Sender entrega un mensaje de texto plano a una dirección.
type Sender interface {
	Send(to, subject, body string) error
}

package email

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/otpgate/internal/observability/logger"
)

// TextSender entrega un mensaje a un teléfono vía gateways SMS-por-email:
// por cada host configurado se manda un email a <número>@<host>. El carrier
// correcto lo entrega como SMS; los demás lo descartan.
type TextSender struct {
	sender        Sender
	providerHosts []string
}

// NewTextSender crea un TextSender sobre el Sender de email dado.
func NewTextSender(sender Sender, providerHosts []string) *TextSender {
	return &TextSender{sender: sender, providerHosts: providerHosts}
}

// Send manda body al número por cada gateway. Falla solo si ningún gateway
// aceptó el mensaje.
func (s *TextSender) Send(number, subject, body string) error {
	if len(s.providerHosts) == 0 {
		return errors.New("text: no mobile provider hosts configured")
	}

	log := logger.L().With(logger.Component("TextSender"))
	var errs []error
	for _, host := range s.providerHosts {
		addr := fmt.Sprintf("%s@%s", number, host)
		if err := s.sender.Send(addr, subject, body); err != nil {
			log.Warn("gateway send failed",
				logger.String("gateway", host), logger.Err(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == len(s.providerHosts) {
		return fmt.Errorf("text: all gateways failed: %w", errors.Join(errs...))
	}
	return nil
}

// Package httpapi es el controller layer: mapea los endpoints HTTP a la
// secuencia generator + registry + tokenstore (+ delivery). Es el único
// caller del core.
package httpapi

import (
	"net/http"

	"github.com/dropDatabas3/otpgate/internal/email"
	"github.com/dropDatabas3/otpgate/internal/metrics"
	"github.com/dropDatabas3/otpgate/internal/observability/logger"
	"github.com/dropDatabas3/otpgate/internal/otp"
	"github.com/dropDatabas3/otpgate/internal/rate"
	"github.com/dropDatabas3/otpgate/internal/tenant"
	"github.com/dropDatabas3/otpgate/internal/tokenstore"
	"github.com/dropDatabas3/otpgate/internal/validation"
)

// Controllers agrupa los handlers OTP con sus dependencias inyectadas.
// Depende del contrato Store, nunca de un backend concreto.
type Controllers struct {
	Registry  *tenant.Registry
	Store     tokenstore.Store
	Generator *otp.Generator

	// EmailSender entrega tokens por email; TextSender por gateway SMS.
	EmailSender email.Sender
	TextSender  email.Sender

	// Limiter acota la emisión por (canal, destino). Opcional.
	Limiter rate.Limiter

	// BlockingSend: esperar el resultado del envío antes de responder.
	// false = goroutine fire-and-forget, se asume éxito.
	BlockingSend bool
}

// SendEmail genera un token para el address dado y lo manda por email.
//
// Form params: client, clientpassword, address.
func (c *Controllers) SendEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx)

	t, ok := c.authorize(w, r)
	if !ok {
		return
	}

	address := r.FormValue("address")
	if !validation.ValidEmail(address) {
		log.Debug("invalid email address", logger.Tenant(t.Name))
		writeError(w, http.StatusBadRequest, codeAddr, "No valid email specified.")
		return
	}

	if !c.allow("email:" + address) {
		writeError(w, http.StatusTooManyRequests, codeRate, "Too many token requests.")
		return
	}

	token, err := c.issue(r, t, address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeServ, "Server error.")
		return
	}

	c.deliver(w, t, "email", c.EmailSender, address, token)
}

// SendText genera un token para el número dado y lo manda por el gateway
// SMS-sobre-email.
//
// Form params: client, clientpassword, number.
func (c *Controllers) SendText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx)

	t, ok := c.authorize(w, r)
	if !ok {
		return
	}

	number := r.FormValue("number")
	if !validation.ValidPhone(number) {
		log.Debug("invalid phone number", logger.Tenant(t.Name))
		writeError(w, http.StatusBadRequest, codeNum, "No valid phone number specified.")
		return
	}
	number = validation.NormalizePhone(number)

	if !c.allow("text:" + number) {
		writeError(w, http.StatusTooManyRequests, codeRate, "Too many token requests.")
		return
	}

	token, err := c.issue(r, t, number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeServ, "Server error.")
		return
	}

	c.deliver(w, t, "text", c.TextSender, number, token)
}

// Validate chequea un token presentado para (client, uid) y lo consume si
// es válido. En caso de token inválido no se distingue la causa (uid
// inexistente, token equivocado, expirado) para no filtrar estado.
//
// Form params: client, clientpassword, uid, token.
func (c *Controllers) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx)

	t, ok := c.authorize(w, r)
	if !ok {
		return
	}

	uid := r.FormValue("uid")
	token := r.FormValue("token")
	if uid == "" {
		writeError(w, http.StatusBadRequest, codeInput, "No user identifier (uid) specified.")
		return
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, codeInput, "No token specified.")
		return
	}

	valid, err := c.Store.Validate(ctx, t.Name, uid, token)
	if err != nil {
		// Falla de infraestructura: fallar cerrado, nunca reportar el
		// token como válido ni como inválido.
		metrics.TokensValidated.WithLabelValues(t.Name, "error").Inc()
		log.Error("tokenstore validate failed",
			logger.Tenant(t.Name), logger.UID(uid), logger.Err(err))
		writeError(w, http.StatusInternalServerError, codeServ, "Server error.")
		return
	}

	if valid {
		metrics.TokensValidated.WithLabelValues(t.Name, "valid").Inc()
		log.Info("token validated", logger.Tenant(t.Name), logger.UID(uid))
	} else {
		metrics.TokensValidated.WithLabelValues(t.Name, "invalid").Inc()
		log.Info("token not valid", logger.Tenant(t.Name), logger.UID(uid))
	}
	writeTokenValid(w, valid)
}

// authorize resuelve el tenant del request y chequea su secret. No se
// distingue "client desconocido" de "password inválido".
func (c *Controllers) authorize(w http.ResponseWriter, r *http.Request) (tenant.Tenant, bool) {
	name := r.FormValue("client")
	t, ok := c.Registry.ByName(name)
	if !ok {
		logger.From(r.Context()).Debug("unknown client", logger.Tenant(name))
		writeError(w, http.StatusUnauthorized, codeGroup, "Invalid client name or password.")
		return tenant.Tenant{}, false
	}
	if !t.Authorize(r.FormValue("clientpassword")) {
		logger.From(r.Context()).Debug("client password mismatch", logger.Tenant(name))
		writeError(w, http.StatusUnauthorized, codeGroup, "Invalid client name or password.")
		return tenant.Tenant{}, false
	}
	return t, true
}

// issue genera el token y lo persiste para (tenant, uid).
func (c *Controllers) issue(r *http.Request, t tenant.Tenant, uid string) (string, error) {
	ctx := r.Context()
	token, err := c.Generator.Generate(t.MinOTPLength, t.MaxOTPLength)
	if err != nil {
		logger.From(ctx).Error("token generation failed",
			logger.Tenant(t.Name), logger.Err(err))
		return "", err
	}
	if err := c.Store.Put(ctx, t.Name, uid, token); err != nil {
		logger.From(ctx).Error("tokenstore put failed",
			logger.Tenant(t.Name), logger.UID(uid), logger.Err(err))
		return "", err
	}
	return token, nil
}

// deliver manda el token por el sender dado, bloqueante o no según config.
func (c *Controllers) deliver(w http.ResponseWriter, t tenant.Tenant, channel string, sender email.Sender, to, token string) {
	log := logger.L().With(logger.Tenant(t.Name), logger.String("channel", channel))
	body := "Your one-time use token: " + token

	if !c.BlockingSend {
		// Fire-and-forget: no esperamos el resultado del envío.
		go func() {
			if err := sender.Send(to, "Authentication Token", body); err != nil {
				metrics.SendFailures.WithLabelValues(channel).Inc()
				log.Error("token delivery failed", logger.Err(err))
				return
			}
			log.Info("token delivered")
		}()
		metrics.TokensIssued.WithLabelValues(t.Name, channel).Inc()
		writeOK(w)
		return
	}

	if err := sender.Send(to, "Authentication Token", body); err != nil {
		metrics.SendFailures.WithLabelValues(channel).Inc()
		log.Error("token delivery failed", logger.Err(err))
		writeError(w, http.StatusBadGateway, codeSend, "Could not send token.")
		return
	}
	metrics.TokensIssued.WithLabelValues(t.Name, channel).Inc()
	log.Info("token delivered")
	writeOK(w)
}

func (c *Controllers) allow(key string) bool {
	if c.Limiter == nil {
		return true
	}
	res, err := c.Limiter.Allow(key)
	if err != nil {
		// El limiter es best-effort: ante un error, dejar pasar.
		return true
	}
	if !res.Allowed {
		metrics.RateLimited.Inc()
	}
	return res.Allowed
}

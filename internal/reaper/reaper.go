// Package reaper implementa el barrido periódico de tokens expirados.
//
// El reaper evita que el backend en memoria crezca sin límite: un token que
// nunca se valida quedaría vivo para siempre sin este loop. Solo tiene
// sentido para backends sin expiración nativa (ver Store.RequiresReaper).
package reaper

import (
	"context"
	"time"

	"github.com/dropDatabas3/otpgate/internal/metrics"
	"github.com/dropDatabas3/otpgate/internal/observability/logger"
	"github.com/dropDatabas3/otpgate/internal/tokenstore"
)

// DefaultInterval es el intervalo entre ciclos de limpieza.
const DefaultInterval = 60 * time.Second

// Reaper invoca RemoveExpired sobre el store activo a intervalo fijo.
// Best-effort: una falla se loggea y el próximo ciclo se intenta igual.
// No toma locks propios; solo los del store dentro de RemoveExpired.
type Reaper struct {
	store    tokenstore.Store
	interval time.Duration
}

// New crea un Reaper. interval <= 0 usa DefaultInterval.
func New(store tokenstore.Store, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{store: store, interval: interval}
}

// Run ejecuta el loop hasta que ctx se cancele. Pensado para correr en su
// propia goroutine por el resto de la vida del proceso; la cancelación del
// contexto es la señal de graceful stop.
func (r *Reaper) Run(ctx context.Context) {
	log := logger.L().With(logger.Component("reaper"))
	log.Info("reaper started", logger.Duration(r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Debug("starting cleaning cycle")
			if err := r.store.RemoveExpired(ctx); err != nil {
				// Un ciclo perdido no es visible para el usuario;
				// se reintenta en el próximo tick.
				metrics.ReaperCycles.WithLabelValues("error").Inc()
				log.Warn("cleaning cycle failed", logger.Err(err))
				continue
			}
			metrics.ReaperCycles.WithLabelValues("ok").Inc()
			log.Debug("cleaning cycle complete")
		case <-ctx.Done():
			log.Info("reaper stopped")
			return
		}
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/otpgate/internal/observability/logger"
)

// Monitor es el endpoint de disponibilidad: responde OK si el proceso está
// vivo. No toca el tokenstore; para eso están las métricas.
func (c *Controllers) Monitor(w http.ResponseWriter, r *http.Request) {
	logger.From(r.Context()).Debug("monitored - ok")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

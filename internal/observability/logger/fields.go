package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// Tenant crea un campo para el nombre del tenant (client).
func Tenant(v string) zap.Field {
	return zap.String("tenant", v)
}

// UID crea un campo para el identificador del usuario final
// (email o número de teléfono).
func UID(v string) zap.Field {
	return zap.String("uid", v)
}

// Backend crea un campo para el backend del tokenstore.
func Backend(v string) zap.Field {
	return zap.String("backend", v)
}

// Component crea un campo para el componente que emite el log.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Removed crea un campo para la cantidad de entradas purgadas.
func Removed(v int64) zap.Field {
	return zap.Int64("removed", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(k, v string) zap.Field {
	return zap.String(k, v)
}

// Int crea un campo int genérico.
func Int(k string, v int) zap.Field {
	return zap.Int(k, v)
}

// Package tokenstore define el contrato de almacenamiento de one-time
// passwords y sus tres backends: local (in-process), postgres y redis.
//
// El contrato es el mismo para los tres:
//
//   - Put guarda el token de un (tenant, uid) con expiración
//     now + lifetime del tenant, reemplazando cualquier entrada viva.
//   - Validate es check-and-consume atómico: con validaciones concurrentes
//     sobre la misma key, exactamente un caller observa true.
//   - RemoveExpired purga entradas vencidas en batch; los backends con
//     expiración nativa lo señalan con ErrNotSupported.
//
// Las fallas de infraestructura (conectividad, auth, query) siempre se
// reportan como ErrStoreUnavailable, nunca como "token inválido".
package tokenstore

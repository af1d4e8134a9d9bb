package httpapi

import (
	"encoding/json"
	"net/http"
)

// Códigos de error de la API, en el vocabulario de jOTP.
const (
	codeGroup = "GROUP"  // client desconocido o password inválido
	codeAddr  = "ADDR"   // email inválido
	codeNum   = "NUMBER" // teléfono inválido
	codeInput = "INPUT"  // falta uid o token
	codeServ  = "SERV"   // falla de infraestructura (tokenstore)
	codeSend  = "SEND"   // la entrega del token falló
	codeRate  = "RATE"   // rate limit excedido
)

// response es el cuerpo JSON de todos los endpoints OTP.
// Éxito: {"error": ""}. Falla: {"error": "<código>", "message": "..."}.
type response struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	TokenValid *bool  `json:"tokenValid,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, response{})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, response{Error: code, Message: message})
}

func writeTokenValid(w http.ResponseWriter, valid bool) {
	writeJSON(w, http.StatusOK, response{TokenValid: &valid})
}

package httpapi

import (
	"context"
	"net/http"
	"time"
)

// Server envuelve http.Server con arranque y shutdown graceful.
type Server struct {
	srv *http.Server
}

// NewServer crea el server HTTP en addr con el handler dado.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// ListenAndServe bloquea hasta que el server termine.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drena las conexiones en curso y cierra el listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

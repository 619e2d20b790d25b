package httpserver

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type Options struct {
	CORSOrigins    []string
	Timeout        time.Duration
	TrustedProxies []netip.Prefix
}

type Server struct{ mux *chi.Mux }

func New(o Options) *Server {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if len(o.CORSOrigins) == 0 {
		o.CORSOrigins = []string{"*"}
	}
	m := chi.NewRouter()

	m.Use(ClientIP(o.TrustedProxies))
	m.Use(chimw.RequestID)
	m.Use(RequestContext)
	m.Use(chimw.Recoverer)
	m.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	m.Use(Timeout(o.Timeout))
	m.Use(AccessLog(log.Logger))

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount exposes an extra handler such as /metrics next to the API.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

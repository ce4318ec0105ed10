// Package httpapi serves the dispatcher over HTTP with chi: the legacy structured endpoint,
// per-action routes, the event adapter and a small catalog site.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/event"
)

const (
	logPrefix = "httpapi:server"

	// Transport is the transport name stamped on requests from this adapter.
	Transport = "http"

	maxBodyBytes = 1 << 20
)

// Server holds the HTTP handlers.
type Server struct {
	dispatcher *dispatcher.Dispatcher
	events     *event.Handler
	timeout    time.Duration
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout bounds every request. Zero disables the timeout middleware.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// NewServer creates a new Server over d.
func NewServer(d *dispatcher.Dispatcher, opts ...Option) *Server {
	s := &Server{
		dispatcher: d,
		events:     event.NewHandler(d),
		timeout:    25 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Resource-Version"},
		MaxAge:         300,
	}))
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/", s.handleHome())
	r.Get("/healthy/", s.handleHealthy)

	r.Route("/api/v1.0", func(r chi.Router) {
		r.Get("/", s.handleHealthy)
		r.Post("/", s.handleStructured)
		r.Get("/resources", s.handleResources)
		r.Post("/event", s.handleEvent)
	})

	r.Route("/resources/{resource}", func(r chi.Router) {
		r.Get("/", s.handleResourceDetail())
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/docs", s.handleDocs())
	})

	for _, nr := range namedRoutes {
		r.Method(nr.method, nr.path, s.handleNamed(nr))
	}

	r.Get("/{resource}/{action}", s.handleActionQuery)
	r.Post("/{resource}/{action}", s.handleActionBody)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug(fmt.Sprintf("%s - %s %s %d %s [%s]", logPrefix, r.Method, r.URL.Path, ww.Status(),
			time.Since(start), middleware.GetReqID(r.Context())))
	})
}

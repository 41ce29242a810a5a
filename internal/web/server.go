package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Munene001/bigosbackend/internal/blobstore"
	"github.com/Munene001/bigosbackend/internal/service"
)

type Server struct {
	service *service.PropertyService
	blobs   blobstore.BlobStore
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.PropertyService, blobs blobstore.BlobStore, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		blobs:   blobs,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /properties", s.handleCreateProperty)
	s.mux.HandleFunc("GET /properties", s.handleListProperties)
	s.mux.HandleFunc("GET /properties/filter", s.handleFilterProperties)
	s.mux.HandleFunc("GET /properties/{id}", s.handleGetProperty)
	s.mux.HandleFunc("PUT /properties/{id}", s.handleUpdateProperty)
	// The site admin form submits updates as POST.
	s.mux.HandleFunc("POST /properties/{id}", s.handleUpdateProperty)
	s.mux.HandleFunc("DELETE /properties/{id}", s.handleDeleteProperty)
	s.mux.HandleFunc("DELETE /images/{image_id}", s.handleDeleteImage)
	s.mux.HandleFunc("GET /bigos/{filename}", s.handleGetImage)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc = http.HandlerFunc

// Router is a chi mux with request logging and panic recovery installed.
type Router struct {
	mux    *chi.Mux
	logger *slog.Logger
	color  bool
}

// Options configures request logging.
type Options struct {
	Logger *slog.Logger
	// Color prints one colored line per request instead of a structured record.
	Color bool
}

func New(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Router{
		mux:    chi.NewRouter(),
		logger: opts.Logger.With(slog.String("component", "http")),
		color:  opts.Color,
	}

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(r.logRequests)
	r.mux.Use(middleware.Recoverer)

	r.mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	r.mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// --- Register paths ---
func (r *Router) GET(path string, handler HandlerFunc)    { r.mux.Get(path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)   { r.mux.Post(path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)    { r.mux.Put(path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc)  { r.mux.Patch(path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) { r.mux.Delete(path, handler) }

// Mount attaches a sub-router or handler under pattern.
func (r *Router) Mount(pattern string, h http.Handler) { r.mux.Mount(pattern, h) }

// Handle registers h for every method on pattern.
func (r *Router) Handle(pattern string, h http.Handler) { r.mux.Handle(pattern, h) }

// Route opens a sub-router sharing the middleware stack.
func (r *Router) Route(pattern string, fn func(chi.Router)) { r.mux.Route(pattern, fn) }

// Use appends middleware.
func (r *Router) Use(mw ...func(http.Handler) http.Handler) { r.mux.Use(mw...) }

// Handler returns the root handler.
func (r *Router) Handler() http.Handler { return r.mux }

// Routes lists registered routes as "METHOD PATH", for tests and startup logs.
func (r *Router) Routes() []string {
	var out []string
	_ = chi.Walk(r.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+route)
		return nil
	})
	return out
}

// --- Server ---

// ServerConfig holds the timeouts of the HTTP server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server builds an http.Server around the router. The caller owns its lifecycle.
func (r *Router) Server(cfg ServerConfig) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      r.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Banner prints the startup line.
func Banner(addr string) {
	fmt.Fprintf(os.Stdout, "🚀 Server started on %shttp://localhost%s%s\n", colorGreen, addr, colorReset)
}

// --- Request logging ---
func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		if r.color {
			fmt.Fprintf(os.Stdout, "%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s\n",
				colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
				methodColor(req.Method), req.Method, colorReset,
				req.URL.Path,
				statusColor(status), status, colorReset,
				colorBlue, duration, colorReset,
			)
			return
		}

		r.logger.InfoContext(req.Context(), "request",
			slog.String("request_id", middleware.GetReqID(req.Context())),
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", duration),
		)
	})
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut:
		return colorYellow
	case http.MethodPatch:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}

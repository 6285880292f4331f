package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey-austin/media_share/pkg/dlna"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func init() {
	chi.RegisterMethod("SUBSCRIBE")
	chi.RegisterMethod("UNSUBSCRIBE")
}

// Documents serves the static descriptor XML.
type Documents interface {
	http.Handler
	Paths() []string
}

// Control answers SOAP control and GENA event requests.
type Control interface {
	ContentDirectory(w http.ResponseWriter, r *http.Request)
	ConnectionManager(w http.ResponseWriter, r *http.Request)
	AVTransport(w http.ResponseWriter, r *http.Request)
	Subscribe(w http.ResponseWriter, r *http.Request)
	Unsubscribe(w http.ResponseWriter, r *http.Request)
}

// Routes groups the handlers mounted on the router.
type Routes struct {
	Documents Documents
	Control   Control
	Media     http.Handler
	Metrics   bool
}

// NewRouter builds the HTTP routes of the media server.
func NewRouter(log *zap.Logger, routes Routes) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	if routes.Documents != nil {
		for _, path := range routes.Documents.Paths() {
			r.Get(path, routes.Documents.ServeHTTP)
			r.Head(path, routes.Documents.ServeHTTP)
		}
	}

	if routes.Control != nil {
		controls := map[string]http.HandlerFunc{
			dlna.ContentDirectoryType:  routes.Control.ContentDirectory,
			dlna.ConnectionManagerType: routes.Control.ConnectionManager,
			dlna.AVTransportType:       routes.Control.AVTransport,
		}
		for _, svc := range dlna.Services() {
			r.Post(svc.ControlURL, controls[svc.Type])
			r.Method("SUBSCRIBE", svc.EventURL, http.HandlerFunc(routes.Control.Subscribe))
			r.Method("UNSUBSCRIBE", svc.EventURL, http.HandlerFunc(routes.Control.Unsubscribe))
		}
	}

	if routes.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	if routes.Media != nil {
		r.Get("/*", routes.Media.ServeHTTP)
		r.Head("/*", routes.Media.ServeHTTP)
	}
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
					zap.String("agent", r.UserAgent()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

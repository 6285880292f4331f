package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mikey-austin/media_share/internal/core"
	"go.uber.org/zap"
)

// DefaultShutdownGrace bounds how long in-flight streams may finish.
const DefaultShutdownGrace = 5 * time.Second

// Config controls the listener.
type Config struct {
	// BindHost is the listen address, empty for all interfaces.
	BindHost string
	// Port is the first port tried.
	Port int
	// PortRange is how many consecutive ports are tried.
	PortRange     int
	ShutdownGrace time.Duration
}

// Listen binds the first free port in [Port, Port+PortRange).
func Listen(cfg Config) (net.Listener, int, error) {
	tries := cfg.PortRange
	if tries < 1 || cfg.Port == 0 {
		tries = 1
	}
	var lastErr error
	for i := 0; i < tries; i++ {
		port := cfg.Port + i
		if port > 65535 {
			break
		}
		ln, err := net.Listen("tcp", net.JoinHostPort(cfg.BindHost, strconv.Itoa(port)))
		if err != nil {
			lastErr = err
			continue
		}
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}
	if lastErr == nil {
		lastErr = errors.New("empty port range")
	}
	return nil, 0, fmt.Errorf("%w: %d-%d: %v", core.ErrNoPort, cfg.Port, cfg.Port+tries-1, lastErr)
}

// Server serves HTTP on a bound listener.
type Server struct {
	log   *zap.Logger
	ln    net.Listener
	srv   *http.Server
	grace time.Duration
}

// New wraps handler in an HTTP server on ln.
func New(log *zap.Logger, ln net.Listener, handler http.Handler, cfg Config) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if ln == nil {
		return nil, errors.New("listener required")
	}
	grace := cfg.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	return &Server{
		log: log,
		ln:  ln,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          zap.NewStdLog(log),
		},
		grace: grace,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Run serves until ctx is done, then drains open requests for the grace
// period before closing them.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.ln)
	}()
	s.log.Info("http listening", zap.Stringer("addr", s.ln.Addr()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("forcing open connections closed", zap.Error(err))
		if cerr := s.srv.Close(); cerr != nil {
			s.log.Debug("close", zap.Error(cerr))
		}
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http stopped")
	return nil
}

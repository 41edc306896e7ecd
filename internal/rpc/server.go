// Package rpc es el transporte de comandos remotos: un endpoint HTTP que recibe
// {"method": "grupo.comando", "params": [...]} y responde el status de la cadena de jobs.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/fabric/internal/cache"
	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/executor"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// maxBody limita el tamaño del request.
const maxBody = 1 << 20

// Server despacha comandos registrados al executor.
type Server struct {
	reg     *command.Registry
	ex      *executor.Executor
	handler http.Handler
	ready   func(ctx context.Context) error
	cache   cache.Client
}

// Options configura rutas auxiliares del Server.
type Options struct {
	// Gatherer expone /metrics. Nil usa el registry default de prometheus.
	Gatherer prometheus.Gatherer
	// Ready se consulta en /readyz. Nil = siempre listo.
	Ready func(ctx context.Context) error
	// Cache, si no es nil, agrega sus estadísticas a /readyz.
	Cache cache.Client
}

// NewServer crea el servidor.
func NewServer(reg *command.Registry, ex *executor.Executor, opts Options) *Server {
	if reg == nil {
		reg = command.NewRegistry()
	}
	s := &Server{reg: reg, ex: ex, ready: opts.Ready, cache: opts.Cache}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Post("/rpc", s.handleRPC)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.handler = Chain(r, WithRecover(), WithRequestID(), WithLogging())
	return s
}

var _ command.Server = (*Server)(nil)

// Register pone el comando en modo servidor y lo registra.
func (s *Server) Register(c command.Command) error {
	if sc, ok := c.(interface{ SetupServer(command.Server) error }); ok {
		if err := sc.SetupServer(s); err != nil {
			return err
		}
	}
	return s.reg.Register(c)
}

// RegisterAll registra varios comandos; se detiene en el primer error.
func (s *Server) RegisterAll(cmds ...command.Command) error {
	for _, c := range cmds {
		if err := s.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Registry retorna el registry de comandos.
func (s *Server) Registry() *command.Registry { return s.reg }

// Handler retorna el http.Handler del servidor.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil || req.Method == "" {
		writeFault(w, r, FaultBadRequest, "malformed request")
		return
	}

	ctx, _ := logger.With(r.Context(), logger.Method(req.Method))

	cmd, ok := s.reg.LookupMethod(req.Method)
	if !ok {
		writeFault(w, r.WithContext(ctx), FaultUnknownMethod, "method %q is not supported", req.Method)
		return
	}

	args, err := req.args()
	if err != nil {
		writeFault(w, r.WithContext(ctx), FaultBadRequest, "%s", err.Error())
		return
	}

	st, err := command.Run(ctx, s.ex, cmd, args)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, executor.ErrStopped) {
			msg = "server is shutting down"
		}
		writeFault(w, r.WithContext(ctx), FaultInternal, "%s", msg)
		return
	}
	WriteJSON(w, http.StatusOK, response{Status: st})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	body := map[string]any{"status": "ok"}
	if s.cache != nil {
		if st, err := s.cache.Stats(r.Context()); err == nil {
			body["cache"] = st
		} else {
			logger.From(r.Context()).Warn("cache stats failed", logger.Err(err))
		}
	}
	WriteJSON(w, http.StatusOK, body)
}

// Serve escucha en addr hasta que ctx se cancele; luego cierra ordenadamente.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.From(ctx).Info("rpc server listening", logger.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

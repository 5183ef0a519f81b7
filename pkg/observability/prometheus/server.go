package prometheus

import (
	"context"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/fluxorio/threadpool/pkg/core"
)

// Handler adapts promhttp to fasthttp for gatherer.
func Handler(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// Server exposes a metrics path and a /live probe over fasthttp.
type Server struct {
	path    string
	metrics fasthttp.RequestHandler
	srv     *fasthttp.Server
	logger  core.Logger
}

// NewServer creates a metrics server for gatherer on path.
func NewServer(path string, gatherer prometheus.Gatherer, logger core.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	s := &Server{
		path:    path,
		metrics: Handler(gatherer),
		logger:  logger,
	}
	s.srv = &fasthttp.Server{
		Handler:           s.route,
		Name:              "threadpool-metrics",
		NoDefaultDate:     true,
		ReduceMemoryUsage: true,
	}
	return s
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case s.path:
		s.metrics(ctx)
	case "/live":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infof("metrics listening on %s%s", ln.Addr(), s.path)
	return s.srv.Serve(ln)
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting connections and waits for open ones up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

package rawrcache

import (
	"net"
	"net/http"

	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/interceptors"
	"github.com/Keksclan/rawrcache/internal/core"
	"github.com/Keksclan/rawrcache/ratelimit"
	"github.com/Keksclan/rawrcache/rpc"
	"github.com/Keksclan/rawrcache/tracing"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"k8s.io/klog/v2"
)

// Server wraps a [grpc.Server] serving a cache. Interceptors are installed
// by fixed priority: recovery, tracing, rate limiting, then user
// interceptors.
//
// Additional services can be registered on [Server.GRPC] before Serve.
type Server struct {
	grpcServer *grpc.Server
	cache      *cache.Cache
	registry   *prometheus.Registry
	log        logr.Logger
}

// NewServer creates a Server from the supplied options.
func NewServer(opts ...Option) *Server {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	log := klog.Background()
	if cfg.log != nil {
		log = *cfg.log
	}
	log = log.WithName("server")

	if cfg.recovery {
		cfg.middlewares.Add(orderRecovery, interceptors.RecoveryUnary(log))
	}
	if cfg.tracing != nil {
		cfg.middlewares.Add(orderTracing, tracing.UnaryServerInterceptor(cfg.tracing))
	}
	if set := ratelimit.NewSet(cfg.globalLimit, cfg.methodLimit); !set.Empty() {
		cfg.middlewares.Add(orderRateLimit, interceptors.RateLimitUnary(set))
	}
	for _, i := range cfg.user {
		cfg.middlewares.Add(orderUser, i)
	}

	s := &Server{
		grpcServer: grpc.NewServer(core.BuildServerOptions(cfg.middlewares.Build(), cfg.grpcOpts...)...),
		cache:      cfg.cache,
		registry:   cfg.registry,
		log:        log,
	}
	if s.cache != nil {
		rpc.Register(s.grpcServer, rpc.NewHandler(s.cache, log))
	}
	return s
}

// GRPC returns the underlying *grpc.Server so callers can register services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Cache returns the cache configured via WithCache, or nil.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Serve accepts connections on lis until Stop or GracefulStop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("serving", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// GracefulStop stops accepting RPCs, waits for in-flight ones, then closes
// the cache.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics
// from the configured registry, or the default one.
func (s *Server) MetricsHandler() http.Handler {
	if s.registry != nil {
		return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
	}
	return promhttp.Handler()
}

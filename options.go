package rawrcache

import (
	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/internal/core"
	"github.com/Keksclan/rawrcache/ratelimit"
	"github.com/Keksclan/rawrcache/tracing"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

// Interceptor priorities. Lower values run first, regardless of the order
// options are passed to [NewServer].
const (
	orderRecovery  = 100
	orderTracing   = 200
	orderRateLimit = 300
	orderUser      = 1000
)

// config holds the internal configuration assembled via functional options.
type config struct {
	cache    *cache.Cache
	log      *logr.Logger
	registry *prometheus.Registry

	recovery    bool
	tracing     *tracing.Config
	globalLimit *ratelimit.Limiter
	methodLimit map[string]*ratelimit.Limiter
	user        []grpc.UnaryServerInterceptor
	grpcOpts    []grpc.ServerOption

	middlewares core.MiddlewareBuilder
}

// Option configures a Server.
type Option func(*config)

// WithCache serves c as the rawrcache.Cache gRPC service.
func WithCache(c *cache.Cache) Option {
	return func(cfg *config) { cfg.cache = c }
}

// WithLogger sets the server logger. The default is klog's background
// logger.
func WithLogger(l logr.Logger) Option {
	return func(cfg *config) { cfg.log = &l }
}

// WithMetricsRegistry makes [Server.MetricsHandler] serve reg instead of the
// default Prometheus registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(cfg *config) { cfg.registry = reg }
}

// WithRecovery installs panic recovery so that a panic inside a handler
// returns codes.Internal instead of crashing the process.
func WithRecovery() Option {
	return func(cfg *config) { cfg.recovery = true }
}

// WithOpenTelemetry creates a server span for every RPC.
func WithOpenTelemetry(tc tracing.Config) Option {
	return func(cfg *config) { cfg.tracing = &tc }
}

// WithRateLimitGlobal limits all methods without a method limit to rps
// requests per second with the given burst.
func WithRateLimitGlobal(rps float64, burst int) Option {
	return func(cfg *config) { cfg.globalLimit = ratelimit.NewLimiter(rps, burst) }
}

// WithMethodRateLimit gives fullMethod (for example rpc.MethodPut) its own
// limiter, replacing the global one for that method.
func WithMethodRateLimit(fullMethod string, rps float64, burst int) Option {
	return func(cfg *config) {
		if cfg.methodLimit == nil {
			cfg.methodLimit = make(map[string]*ratelimit.Limiter)
		}
		cfg.methodLimit[fullMethod] = ratelimit.NewLimiter(rps, burst)
	}
}

// WithUnaryInterceptor appends a unary server interceptor. User interceptors
// run after the built-in ones, in the order given.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(cfg *config) { cfg.user = append(cfg.user, i) }
}

// WithGRPCOptions passes extra options to grpc.NewServer.
func WithGRPCOptions(opts ...grpc.ServerOption) Option {
	return func(cfg *config) { cfg.grpcOpts = append(cfg.grpcOpts, opts...) }
}

// Package rpc exposes a cache over gRPC as the rawrcache.Cache service. It
// uses a hand-written [grpc.ServiceDesc] so that no protobuf code generation
// is required.
//
// The request and response types are plain Go structs, so the package
// registers a thin codec wrapper that JSON-encodes them while delegating all
// other messages to the standard proto codec. Importing this package
// activates the codec.
package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/Keksclan/rawrcache/cache"
	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "rawrcache.Cache"

// Full method names, as seen by interceptors.
const (
	MethodPut   = "/" + ServiceName + "/Put"
	MethodGet   = "/" + ServiceName + "/Get"
	MethodStats = "/" + ServiceName + "/Stats"
	MethodPing  = "/" + ServiceName + "/Ping"
)

// Handler is the interface a rawrcache.Cache service implementation must
// satisfy.
type Handler interface {
	Put(ctx context.Context, req *PutRequest) (*PutResponse, error)
	Get(ctx context.Context, req *GetRequest) (*GetResponse, error)
	Stats(ctx context.Context, req *StatsRequest) (*StatsResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
}

// NewHandler serves c. Errors are translated to gRPC status codes; see
// [ToStatus].
func NewHandler(c *cache.Cache, log logr.Logger) Handler {
	return &handler{c: c, log: log}
}

type handler struct {
	c   *cache.Cache
	log logr.Logger
}

func (h *handler) Put(ctx context.Context, req *PutRequest) (*PutResponse, error) {
	id, err := h.c.Put(ctx, req.Data)
	if err != nil {
		if id >= 0 {
			// Stored, but the eviction it triggered failed. The caller
			// gets its id and the failure.
			h.log.Error(err, "eviction after put failed", "id", id)
			return &PutResponse{ID: id, EvictionError: err.Error()}, nil
		}
		return nil, ToStatus(err)
	}
	return &PutResponse{ID: id}, nil
}

func (h *handler) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	b, ok, err := h.c.Get(ctx, req.ID)
	if err != nil {
		if ok {
			h.log.Error(err, "eviction after reload failed", "id", req.ID)
			return &GetResponse{Data: b, Found: true, EvictionError: err.Error()}, nil
		}
		return nil, ToStatus(err)
	}
	return &GetResponse{Data: b, Found: ok}, nil
}

func (h *handler) Stats(context.Context, *StatsRequest) (*StatsResponse, error) {
	st := h.c.Stats()
	return &StatsResponse{
		Entries:         st.Entries,
		ResidentEntries: st.ResidentEntries,
		ResidentBytes:   st.ResidentBytes,
		HighWatermark:   st.HighWatermark,
		LowWatermark:    st.LowWatermark,
	}, nil
}

func (h *handler) Ping(_ context.Context, req *PingRequest) (*PingResponse, error) {
	return &PingResponse{
		Message:        req.Message,
		ServerTimeUnix: time.Now().Unix(),
	}, nil
}

// ToStatus maps cache errors to gRPC status errors. ErrUnavailable is
// checked first: a rejected put whose pressure pass also failed is still a
// retryable rejection. A closed cache maps to FailedPrecondition so that
// clients do not retry it.
func ToStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cache.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, cache.ErrClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, cache.ErrTooLarge):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, cache.ErrBlobMissing):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// ServiceDesc is the grpc.ServiceDesc for the rawrcache.Cache service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: unary(MethodPut, Handler.Put)},
		{MethodName: "Get", Handler: unary(MethodGet, Handler.Get)},
		{MethodName: "Stats", Handler: unary(MethodStats, Handler.Stats)},
		{MethodName: "Ping", Handler: unary(MethodPing, Handler.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rawrcache/cache.proto",
}

// unary adapts a typed Handler method to a grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(Handler, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(Handler), ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, r any) (any, error) {
			return call(srv.(Handler), ctx, r.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// Register registers a rawrcache.Cache implementation on the given server.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

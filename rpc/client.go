package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/Keksclan/rawrcache/retry"
	"google.golang.org/grpc"
)

// ErrEviction reports that the server completed a Put or Get but the
// eviction pass it triggered could not write to the backing store. The
// result returned alongside it is valid.
var ErrEviction = errors.New("server eviction failed")

// Client is a typed client for the rawrcache.Cache service. Put is retried
// with back-off while the server reports Unavailable.
type Client struct {
	cc    grpc.ClientConnInterface
	retry retry.Config
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetry replaces the retry policy used for Put. The default is
// [retry.DefaultConfig].
func WithRetry(cfg retry.Config) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a Client on top of an established connection.
func NewClient(cc grpc.ClientConnInterface, opts ...ClientOption) *Client {
	c := &Client{cc: cc, retry: retry.DefaultConfig()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Put stores b and returns its id. When b was stored but the server could
// not spill to its backing store, Put returns the id together with an error
// wrapping ErrEviction.
func (c *Client) Put(ctx context.Context, b []byte) (int, error) {
	resp, err := retry.Do(ctx, c.retry, func(ctx context.Context) (*PutResponse, error) {
		resp := new(PutResponse)
		if err := c.cc.Invoke(ctx, MethodPut, &PutRequest{Data: b}, resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return -1, err
	}
	return resp.ID, evictionError(resp.EvictionError)
}

// Get fetches the blob stored under id. An unknown id reports false. Like
// Put, a read whose follow-up eviction failed returns the blob together with
// an error wrapping ErrEviction.
func (c *Client) Get(ctx context.Context, id int) ([]byte, bool, error) {
	resp := new(GetResponse)
	if err := c.cc.Invoke(ctx, MethodGet, &GetRequest{ID: id}, resp); err != nil {
		return nil, false, err
	}
	if resp.Found && resp.Data == nil {
		resp.Data = []byte{}
	}
	return resp.Data, resp.Found, evictionError(resp.EvictionError)
}

// Stats returns the server's cache statistics.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	resp := new(StatsResponse)
	if err := c.cc.Invoke(ctx, MethodStats, &StatsRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Ping echoes msg through the server.
func (c *Client) Ping(ctx context.Context, msg string) (*PingResponse, error) {
	resp := new(PingResponse)
	if err := c.cc.Invoke(ctx, MethodPing, &PingRequest{Message: msg}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func evictionError(msg string) error {
	if msg == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrEviction, msg)
}

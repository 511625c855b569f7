package rawrcache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Keksclan/rawrcache/breaker"
	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/store"
	"github.com/go-git/go-billy/v5/osfs"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration of a cache server.
//
//	listen: ":50051"
//	metrics_listen: ":9090"
//	cache:
//	  high_watermark: 67108864
//	  low_watermark: 50331648
//	  background_cleaner: true
//	store:
//	  kind: fs
//	  dir: /var/lib/rawrcache
//	  compress: true
//	  buffer_bytes: 8388608
//	  breaker:
//	    failure_threshold: 5
//	    open_timeout: 5s
//	rate_limit:
//	  global: {rps: 1000, burst: 100}
//	  methods:
//	    /rawrcache.Cache/Put: {rps: 200, burst: 50}
type FileConfig struct {
	Listen        string          `yaml:"listen"`
	MetricsListen string          `yaml:"metrics_listen"`
	Cache         CacheSection    `yaml:"cache"`
	Store         StoreSection    `yaml:"store"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

// CacheSection sizes the cache. An absent low_watermark means 80% of high.
type CacheSection struct {
	InitialCapacity   int    `yaml:"initial_capacity"`
	HighWatermark     int64  `yaml:"high_watermark"`
	LowWatermark      *int64 `yaml:"low_watermark"`
	BackgroundCleaner bool   `yaml:"background_cleaner"`
}

// StoreSection selects and decorates the backing store.
type StoreSection struct {
	// Kind is one of memory, fs, redis or minio. Empty means memory.
	Kind string `yaml:"kind"`

	Dir   string       `yaml:"dir"`
	Redis RedisSection `yaml:"redis"`
	Minio MinioSection `yaml:"minio"`

	Compress    bool           `yaml:"compress"`
	BufferBytes int64          `yaml:"buffer_bytes"`
	Breaker     *BreakerConfig `yaml:"breaker"`
}

// RedisSection configures a Redis backing store.
type RedisSection struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MinioSection configures an S3-compatible backing store.
type MinioSection struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// BreakerConfig guards the backing store with a circuit breaker. Zero
// fields take the breaker defaults.
type BreakerConfig struct {
	FailureThreshold   int           `yaml:"failure_threshold"`
	OpenTimeout        time.Duration `yaml:"open_timeout"`
	HalfOpenMaxSuccess int           `yaml:"half_open_max_success"`
}

// Limit is a token-bucket rate.
type Limit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// RateLimitConfig holds the global and per-method RPC limits.
type RateLimitConfig struct {
	Global  *Limit           `yaml:"global"`
	Methods map[string]Limit `yaml:"methods"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes and validates a YAML configuration. Unknown fields are
// rejected.
func ParseConfig(r io.Reader) (*FileConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fc FileConfig
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if fc.Listen == "" {
		fc.Listen = ":50051"
	}
	if err := fc.CacheConfig().Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// CacheConfig returns the cache sizing described by the file.
func (fc *FileConfig) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig(fc.Cache.HighWatermark)
	cfg.InitialCapacity = fc.Cache.InitialCapacity
	if fc.Cache.LowWatermark != nil {
		cfg.LowWatermark = *fc.Cache.LowWatermark
	}
	return cfg
}

// BuildStore constructs the backing store with its decorators applied in
// the order breaker(buffer(compress(device))). The returned close function
// releases every component that holds resources.
func (fc *FileConfig) BuildStore() (store.Store, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	s, err := fc.Store.device(&closers)
	if err != nil {
		return nil, nil, err
	}
	if fc.Store.Compress {
		c, err := store.NewCompressed(s)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, c.Close)
		s = c
	}
	if fc.Store.BufferBytes > 0 {
		b, err := store.NewBuffered(s, fc.Store.BufferBytes)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() error { b.Close(); return nil })
		s = b
	}
	if bc := fc.Store.Breaker; bc != nil {
		s = store.NewGuarded(s, bc.breakerConfig())
	}
	return s, closeAll, nil
}

func (ss StoreSection) device(closers *[]func() error) (store.Store, error) {
	switch ss.Kind {
	case "", "memory":
		return store.NewMemory(), nil
	case "fs":
		if ss.Dir == "" {
			return nil, errors.New("store: fs requires dir")
		}
		return store.NewFS(osfs.New(ss.Dir), ".")
	case "redis":
		if ss.Redis.Addr == "" {
			return nil, errors.New("store: redis requires addr")
		}
		r := store.NewRedis(ss.Redis.Addr, ss.Redis.Password, ss.Redis.DB, ss.Redis.Prefix)
		*closers = append(*closers, r.Close)
		return r, nil
	case "minio":
		return store.NewMinio(store.MinioConfig{
			Endpoint:  ss.Minio.Endpoint,
			AccessKey: ss.Minio.AccessKey,
			SecretKey: ss.Minio.SecretKey,
			UseSSL:    ss.Minio.UseSSL,
			Bucket:    ss.Minio.Bucket,
			Prefix:    ss.Minio.Prefix,
		})
	default:
		return nil, fmt.Errorf("store: unknown kind %q", ss.Kind)
	}
}

func (bc BreakerConfig) breakerConfig() breaker.Config {
	cfg := breaker.DefaultConfig()
	if bc.FailureThreshold > 0 {
		cfg.FailureThreshold = bc.FailureThreshold
	}
	if bc.OpenTimeout > 0 {
		cfg.OpenTimeout = bc.OpenTimeout
	}
	if bc.HalfOpenMaxSuccess > 0 {
		cfg.HalfOpenMaxSuccess = bc.HalfOpenMaxSuccess
	}
	return cfg
}

// CacheOptions returns the cache options implied by the file, other than
// the store.
func (fc *FileConfig) CacheOptions() []cache.Option {
	var opts []cache.Option
	if fc.Cache.BackgroundCleaner {
		opts = append(opts, cache.WithBackgroundCleaner())
	}
	return opts
}

// ServerOptions returns the rate-limit options described by the file.
func (fc *FileConfig) ServerOptions() []Option {
	var opts []Option
	if g := fc.RateLimit.Global; g != nil {
		opts = append(opts, WithRateLimitGlobal(g.RPS, g.Burst))
	}
	for method, l := range fc.RateLimit.Methods {
		opts = append(opts, WithMethodRateLimit(method, l.RPS, l.Burst))
	}
	return opts
}

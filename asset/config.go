package asset

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option is the functional option passed to NewServer, mirroring the
// teacher's Option[K,V] shape (pkg/config.go) minus the generic key/value
// parameters the asset server doesn't need.
type Option func(*config)

type config struct {
	logger          *zap.Logger
	registry        *prometheus.Registry
	diskCache       *DiskCache
	loadConcurrency int
}

func defaultConfig() *config {
	return &config{
		logger:          zap.NewNop(),
		loadConcurrency: 8,
	}
}

// WithLogger plugs an external zap.Logger. The server never logs on the hot
// dereference path; only pack discovery, compatibility decisions, and
// hot-reload events are logged.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default), matching the teacher's WithMetrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithDiskCache attaches an optional on-disk second tier (see DiskCache):
// each loaded asset's raw bytes are written to it keyed by Cid. The server
// never reads the cache back, so loads always parse the pack files.
func WithDiskCache(dc *DiskCache) Option {
	return func(c *config) { c.diskCache = dc }
}

// WithLoadConcurrency bounds how many loads run concurrently via the
// errgroup pool backing LoadMany. Values <= 0 are ignored.
func WithLoadConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.loadConcurrency = n
		}
	}
}

func applyOptions(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.loadConcurrency <= 0 {
		return nil, errInvalidConcurrency
	}
	return cfg, nil
}

var errInvalidConcurrency = errors.New("bones/asset: load concurrency must be > 0")

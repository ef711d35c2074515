package marketplace

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	keyPrefix        string
	projectBatchSize int
	tagBatchSize     int
	skipIndexes      bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis connects the client to a Redis 8 instance (JSON and query engine).
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCredentials sets an ACL user and a logical database.
func WithCredentials(username string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.db = db
	})
}

// WithKeyPrefix namespaces keys and index names. Defaults to "marketplace:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithBatchSizes sets the page sizes used to drain visible projects and tag lookups.
func WithBatchSizes(projects, tags int) Option {
	return optionFunc(func(c *clientConfig) {
		c.projectBatchSize = projects
		c.tagBatchSize = tags
	})
}

// WithoutIndexBootstrap skips index creation on New, for read replicas
// where the server owns the schema.
func WithoutIndexBootstrap() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipIndexes = true
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

package vectab

import (
	"log/slog"

	"github.com/hupe1980/vectab/blobstore"
	"github.com/hupe1980/vectab/dataset"
	"github.com/hupe1980/vectab/fragment"
)

type options struct {
	engine           dataset.Engine
	store            blobstore.Store
	compression      fragment.Compression
	strictVectors    bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Connect behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. store-specific constructor variants).
type Option func(*options)

// WithStore configures the object store that backs the connection.
// If neither WithStore nor WithEngine is given, Connect uses a local
// filesystem store rooted at the connection URI.
func WithStore(store blobstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithEngine replaces the whole storage engine. Takes precedence over
// WithStore. Use this to plug in an engine with its own commit
// coordination, e.g.:
//
//	engine := dataset.NewStoreEngine(s3Store, func(o *dataset.EngineOptions) {
//	    o.CommitStore = dataset.NewDDBCommitStore(ddbClient, "vectab-commits")
//	})
//	conn, _ := vectab.Connect("db", vectab.WithEngine(engine))
func WithEngine(engine dataset.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithCompression configures the fragment compression used by the default
// engine. Ignored when WithEngine is given.
func WithCompression(c fragment.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithStrictVectors controls vector-column normalization strictness.
//
// Strict (the default) validates every row of a variable-length vector
// column against the first row's length and fails fast on the first
// mismatch. Non-strict only requires the total value count to be evenly
// divisible by the row count, matching the width-inference behavior of
// systems that trust the aggregate. Rows are never padded in either mode.
func WithStrictVectors(strict bool) Option {
	return func(o *options) {
		o.strictVectors = strict
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vectab.BasicMetricsCollector{}
//	conn, _ := vectab.Connect("./data", vectab.WithMetricsCollector(metrics))
//	// ... use conn ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := vectab.NewJSONLogger(slog.LevelInfo)
//	conn, _ := vectab.Connect("./data", vectab.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      fragment.CompressionZstd,
		strictVectors:    true,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

package gtc

import (
	"github.com/sirupsen/logrus"

	"github.com/kafemoka/GST/ans"
	"github.com/kafemoka/GST/scheduler"
)

// Options holds the recognized decoder options. Zero-value Options is
// usable: async defaults off, page size defaults to scheduler.PageSize,
// and the interleave factor defaults to ans.DefaultInterleave.
type Options struct {
	Async            bool
	Profiling        bool
	PageSize         int
	InterleaveFactor int
	Logger           *logrus.Logger
}

// Option configures a Decoder at construction time.
type Option func(*Options)

// WithAsync enables the worker-pool page execution path.
func WithAsync(async bool) Option {
	return func(o *Options) { o.Async = async }
}

// WithProfiling wraps batch flushes in a one-shot CPU profile run.
func WithProfiling(enabled bool) Option {
	return func(o *Options) { o.Profiling = enabled }
}

// WithPageSize overrides the default page size. n must be positive.
func WithPageSize(n int) Option {
	return func(o *Options) { o.PageSize = n }
}

// WithInterleaveFactor overrides the default tANS interleave width.
func WithInterleaveFactor(n int) Option {
	return func(o *Options) { o.InterleaveFactor = n }
}

// WithLogger overrides the default logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func defaultOptions() Options {
	return Options{
		PageSize:         scheduler.PageSize,
		InterleaveFactor: ans.DefaultInterleave,
		Logger:           logrus.StandardLogger(),
	}
}

func resolveOptions(opts []Option) Options {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

package lang

import "github.com/ardnew/etpl/log"

// DefaultMaxDepth bounds block nesting, expression nesting and render
// recursion.
const DefaultMaxDepth = 256

// Option configures compilation, rendering and caching.
type Option func(*options)

type options struct {
	logger   log.Logger
	globals  *Globals
	maxDepth int
	dev      bool
}

func makeOptions(opts ...Option) options {
	o := options{maxDepth: DefaultMaxDepth}

	return o.with(opts...)
}

func (o options) with(opts ...Option) options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// WithDevelopment selects development mode, in which a [Cache] recompiles
// templates on every load instead of compiling each path once.
func WithDevelopment(dev bool) Option {
	return func(o *options) { o.dev = dev }
}

// WithLogger sets the logger used for compile, cache and render events.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithGlobals sets the global function table. Without it, templates see
// [NewGlobals](nil, nil).
func WithGlobals(g *Globals) Option {
	return func(o *options) { o.globals = g }
}

// WithMaxDepth sets the nesting limit. Values below 1 select
// [DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultMaxDepth
		}

		o.maxDepth = n
	}
}

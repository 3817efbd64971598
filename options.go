package asyncrt

import (
	"runtime"

	"go.opentelemetry.io/otel/metric"
)

// config holds resolved Builder configuration. Grounded on the teacher's
// loopOptions (options.go): a plain struct populated by functional options,
// with a single resolve step applying defaults.
type config struct {
	workerCount        int
	localQueueCapacity int
	enableIO           bool
	enableTimer        bool
	threadNamePrefix   string
	onThreadStart      func(workerIndex int)
	logger             *runtimeLogger
	meter              metric.Meter
}

// Option configures a Builder. Mirrors the teacher's LoopOption interface
// shape (an unexported function wrapped in a named type), generalized to
// the Runtime builder surface spec.md section 4.5 names.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithWorkerCount sets the number of worker goroutines. A value <= 0 means
// "auto" (runtime.NumCPU()), matching spec.md's worker_count: N | auto(=cpu_count).
func WithWorkerCount(n int) Option {
	return optionFunc(func(c *config) { c.workerCount = n })
}

// WithLocalQueueCapacity sets the fixed capacity of each worker's local run
// queue. Must be a power of two; non-power-of-two values are rounded up in
// resolveConfig.
func WithLocalQueueCapacity(capacity int) Option {
	return optionFunc(func(c *config) { c.localQueueCapacity = capacity })
}

// WithIOEnabled controls whether the Runtime builds a Reactor. Disabling it
// saves an OS readiness-facility handle for runtimes that only ever spawn
// CPU/timer-bound work.
func WithIOEnabled(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableIO = enabled })
}

// WithTimerEnabled controls whether the Runtime builds a timer wheel.
func WithTimerEnabled(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableTimer = enabled })
}

// WithThreadNamePrefix sets the worker-name prefix kept in the resolved
// configuration (default "asyncrt-worker"). The value is only stored:
// worker goroutines are not named or labelled with it.
func WithThreadNamePrefix(prefix string) Option {
	return optionFunc(func(c *config) { c.threadNamePrefix = prefix })
}

// WithOnThreadStart registers a callback invoked once on each worker
// goroutine immediately after it starts, before it begins polling for work.
func WithOnThreadStart(fn func(workerIndex int)) Option {
	return optionFunc(func(c *config) { c.onThreadStart = fn })
}

// WithLogger attaches a structured logger (see logging.go) for the reactor
// and metrics failures listed on Logger. The default is a no-op.
func WithLogger(l Logger) Option {
	return optionFunc(func(c *config) { c.logger = newRuntimeLogger(l) })
}

// WithMetrics attaches an OpenTelemetry Meter used to count successful
// steals and non-empty global-queue pulls from the worker loop, and to
// report local and global queue depth through observable gauges. This is the one
// piece of the domain stack that touches observability; it is off by
// default and never on the hot path when unset.
func WithMetrics(meter metric.Meter) Option {
	return optionFunc(func(c *config) { c.meter = meter })
}

func resolveConfig(opts []Option) (*config, error) {
	c := &config{
		workerCount:        runtime.NumCPU(),
		localQueueCapacity: 256,
		enableIO:           true,
		enableTimer:        true,
		threadNamePrefix:   "asyncrt-worker",
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(c)
	}
	if c.workerCount <= 0 {
		c.workerCount = runtime.NumCPU()
	}
	if c.workerCount <= 0 {
		return nil, errNoWorkers
	}
	c.localQueueCapacity = nextPowerOfTwo(c.localQueueCapacity)
	if c.logger == nil {
		c.logger = newRuntimeLogger(NoOpLogger())
	}
	return c, nil
}

func nextPowerOfTwo(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Builder constructs a Runtime. It is the spec.md section 4.5 "builder"
// that accepts the enumerated configuration and produces workers/reactor/
// timer.
type Builder struct {
	opts []Option
}

// NewBuilder returns a Builder seeded with defaults.
func NewBuilder() *Builder {
	return &Builder{}
}

// With appends options to the builder, fluent-style.
func (b *Builder) With(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// WorkerCount is sugar for With(WithWorkerCount(n)).
func (b *Builder) WorkerCount(n int) *Builder { return b.With(WithWorkerCount(n)) }

// Build constructs the reactor (if enabled), the timer (if enabled),
// allocates the worker structs, and starts the worker goroutines. It
// returns once every worker has signaled readiness, per the spec.md
// section 9 resolution: Build is synchronous thread spawn.
func (b *Builder) Build() (*Runtime, error) {
	cfg, err := resolveConfig(b.opts)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg)
}

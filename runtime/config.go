package runtime

// SchedulerPolicy selects which Scheduler implementation Start constructs
// (spec §6 "scheduler.policy").
type SchedulerPolicy int

const (
	// PolicyProduction uses the work-sharing production scheduler.
	PolicyProduction SchedulerPolicy = iota

	// PolicyDeterministic uses the single-threaded test scheduler, for
	// embedding this module inside a caller's own deterministic tests.
	PolicyDeterministic
)

// DefaultMaxThreads is the worker-pool size used when no WithMaxThreads
// option is supplied.
const DefaultMaxThreads = 4

// DefaultFlowBufferSize is the AsyncBuffer capacity used when no
// WithFlowBufferSize option is supplied.
const DefaultFlowBufferSize = 64

// DefaultFlowMinDemand is the AsyncBuffer minRequestSize used when no
// WithFlowMinDemand option is supplied: how many freed slots accumulate
// before the producer is woken again.
const DefaultFlowMinDemand = 1

// DefaultFlowBatchSize is the default item-count per buffer-to-consumer
// handoff.
const DefaultFlowBatchSize = 16

// Config collects every recognized option from spec §6, following a
// SystemConfig/DefaultConfig/functional-option pattern (RegisterOption/
// WithCleanupTimeout) for tuning scheduler and flow behavior instead of
// per-actor cleanup timeouts.
type Config struct {
	SchedulerMaxThreads int
	SchedulerPolicy     SchedulerPolicy
	FlowBufferSize      int
	FlowMinDemand       int
	FlowBatchSize       int
	LogDir              string
}

// DefaultConfig returns a Config with every option at its documented
// default.
func DefaultConfig() Config {
	return Config{
		SchedulerMaxThreads: DefaultMaxThreads,
		SchedulerPolicy:     PolicyProduction,
		FlowBufferSize:      DefaultFlowBufferSize,
		FlowMinDemand:       DefaultFlowMinDemand,
		FlowBatchSize:       DefaultFlowBatchSize,
	}
}

// Option customizes a Config at Start time.
type Option func(*Config)

// WithMaxThreads overrides scheduler.max_threads.
func WithMaxThreads(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SchedulerMaxThreads = n
		}
	}
}

// WithSchedulerPolicy overrides scheduler.policy.
func WithSchedulerPolicy(p SchedulerPolicy) Option {
	return func(c *Config) { c.SchedulerPolicy = p }
}

// WithFlowBufferSize overrides flow.buffer_size.
func WithFlowBufferSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FlowBufferSize = n
		}
	}
}

// WithFlowMinDemand overrides flow.min_demand.
func WithFlowMinDemand(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FlowMinDemand = n
		}
	}
}

// WithFlowBatchSize overrides flow.batch_size.
func WithFlowBatchSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FlowBatchSize = n
		}
	}
}

// WithLogDir points Start's logging at a gzip-rotated file under dir, in
// addition to the console. Left empty, Runtime logs to stdout only.
func WithLogDir(dir string) Option {
	return func(c *Config) { c.LogDir = dir }
}

package parcorana

// Option configures a Supervisor. Unlike the teacher's Option, which also
// chose between a dynamic and a fixed pool and toggled StopOnError, a
// Supervisor's pool is always fixed at the rank count (every rank gets
// exactly one long-lived role loop) and abort-on-first-error is not
// optional in this protocol — any rank's unrecoverable error must trigger
// a world-abort (spec §7). Only buffer sizing remains caller-tunable.
type Option func(*Config)

// WithResultsBuffer sets the size of the results channel buffer (default 1024).
func WithResultsBuffer(size uint) Option {
	return func(c *Config) { c.ResultsBufferSize = size }
}

// WithErrorsBuffer sets the size of the outgoing errors channel buffer (default 1024).
func WithErrorsBuffer(size uint) Option {
	return func(c *Config) { c.ErrorsBufferSize = size }
}

// WithStopOnErrorBuffer sets the size of the internal abort-forwarding buffer (default 100).
func WithStopOnErrorBuffer(size uint) Option {
	return func(c *Config) { c.StopOnErrorErrorsBufferSize = size }
}

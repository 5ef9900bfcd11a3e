package parcorana

// Config holds Supervisor configuration. The teacher's original package
// carried a config.go/defaults.go pair with a duplicated, slightly
// diverging definition of the same struct (a leftover of an in-progress
// refactor) — consolidated here into one type.
type Config struct {
	// ResultsBufferSize defines the size of the results channel buffer.
	// Default: 1024.
	ResultsBufferSize uint

	// ErrorsBufferSize defines the size of the outgoing errors channel buffer.
	// Default: 1024.
	ErrorsBufferSize uint

	// StopOnErrorErrorsBufferSize defines the size of the internal errors
	// buffer the abort-forwarding goroutine drains. The forwarder cancels
	// the run on the first error it receives, whatever this size.
	// Default: 100.
	StopOnErrorErrorsBufferSize uint
}

func defaultConfig() Config {
	return Config{
		ResultsBufferSize:           1024,
		ErrorsBufferSize:            1024,
		StopOnErrorErrorsBufferSize: 100,
	}
}

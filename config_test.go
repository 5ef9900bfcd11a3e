package parcorana

import "testing"

func TestDefaultConfig_Values(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ResultsBufferSize != 1024 {
		t.Fatalf("ResultsBufferSize default = %d; want 1024", cfg.ResultsBufferSize)
	}
	if cfg.ErrorsBufferSize != 1024 {
		t.Fatalf("ErrorsBufferSize default = %d; want 1024", cfg.ErrorsBufferSize)
	}
	if cfg.StopOnErrorErrorsBufferSize != 100 {
		t.Fatalf("StopOnErrorErrorsBufferSize default = %d; want 100", cfg.StopOnErrorErrorsBufferSize)
	}
}

func TestOptions_OverrideDefaults(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithResultsBuffer(7),
		WithErrorsBuffer(8),
		WithStopOnErrorBuffer(9),
	} {
		opt(&cfg)
	}

	if cfg.ResultsBufferSize != 7 {
		t.Fatalf("ResultsBufferSize = %d; want 7", cfg.ResultsBufferSize)
	}
	if cfg.ErrorsBufferSize != 8 {
		t.Fatalf("ErrorsBufferSize = %d; want 8", cfg.ErrorsBufferSize)
	}
	if cfg.StopOnErrorErrorsBufferSize != 9 {
		t.Fatalf("StopOnErrorErrorsBufferSize = %d; want 9", cfg.StopOnErrorErrorsBufferSize)
	}
}

package master

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lclsdet/parcorana/logging"
)

func TestRateLogger_Tick_NilLogger_NeverPanics(t *testing.T) {
	r := newRateLogger(10*time.Millisecond, nil)
	for i := 0; i < 5; i++ {
		r.Tick(time.Now())
	}
	r.Final(5, time.Now().Add(-time.Second), time.Now())
}

func TestRateLogger_Final_LogsOverallRate(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("master", 0, logging.LevelInformational, &buf)

	r := newRateLogger(time.Hour, log)
	start := time.Now().Add(-2 * time.Second)
	r.Final(240, start, time.Now())

	require.Contains(t, buf.String(), "final events/sec")
}

func TestRateLogger_Final_ZeroElapsed_SkipsLog(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("master", 0, logging.LevelInformational, &buf)

	r := newRateLogger(time.Hour, log)
	now := time.Now()
	r.Final(10, now, now)

	require.False(t, strings.Contains(buf.String(), "final events/sec"))
}

func TestRateLogger_Tick_LogsWithinFirstWindow(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("master", 0, logging.LevelInformational, &buf)

	r := newRateLogger(time.Hour, log)
	r.Tick(time.Now())

	require.Contains(t, buf.String(), "events/sec")
}

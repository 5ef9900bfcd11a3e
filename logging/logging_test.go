package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel_AcceptsKnownNames(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInformational,
		"warning": LevelWarning,
		"err":     LevelError,
		"crit":    LevelCritical,
		"alert":   LevelAlert,
		"emerg":   LevelEmergency,
		"notice":  LevelNotice,
		"trace":   LevelTrace,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoErrorf(t, err, "ParseLevel(%q)", name)
		require.Equalf(t, want, got, "ParseLevel(%q)", name)
	}
}

func TestParseLevel_RejectsUnknownName(t *testing.T) {
	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNew_WritesRoleAndRankFields(t *testing.T) {
	var buf bytes.Buffer
	log := New("worker", 3, LevelInformational, &buf)

	log.Infof("hello %d", 7)

	out := buf.String()
	require.Contains(t, out, "hello 7")
	require.Contains(t, out, "worker")
	require.Contains(t, out, "3")
}

func TestInfof_SuppressedBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("master", 0, LevelWarning, &buf)

	log.Infof("should not appear")
	log.Debugf("should not appear either")

	require.Empty(t, buf.String())
}

func TestErrf_AlwaysAboveWarning(t *testing.T) {
	var buf bytes.Buffer
	log := New("master", 0, LevelWarning, &buf)

	log.Errf("boom")

	require.Contains(t, buf.String(), "boom")
}

func TestFirstOnly_SuppressesWhenNotFirst(t *testing.T) {
	var buf bytes.Buffer
	log := New("worker", 1, LevelInformational, &buf)

	log.FirstOnly(false).Infof("should not appear")
	require.Empty(t, buf.String())

	log.FirstOnly(true).Infof("should appear")
	require.Contains(t, buf.String(), "should appear")
}

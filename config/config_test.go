package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
dataset: exp=xpp12345:run=10
numServers: 2
times: 50
delays: [1, 2, 3, 5, 7]
userClass: incremental-windowed
`

func TestLoad_Minimal(t *testing.T) {
	sys, err := Load([]byte(minimalYAML), nil)
	require.NoError(t, err)
	require.Equal(t, 2, sys.NumServers)
	require.Equal(t, 50, sys.Times)
	require.Equal(t, []int{1, 2, 3, 5, 7}, sys.Delays)
	require.Equal(t, UserClassIncrementalWindowed, sys.User)
	require.False(t, sys.ServersRoundRobin)
}

func TestLoad_MissingRequiredKey(t *testing.T) {
	_, err := Load([]byte("numServers: 2\ntimes: 1\ndelays: [1]\nuserClass: at-end\n"), nil)
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestLoad_UnrecognizedKeyIsWarningNotFatal(t *testing.T) {
	sys, err := Load([]byte(minimalYAML+"notAKey: true\n"), nil)
	require.NoError(t, err)
	require.NotNil(t, sys)
}

func TestLoad_DelaysMustBeAscending(t *testing.T) {
	bad := `
dataset: d
numServers: 1
times: 10
delays: [3, 1, 2]
userClass: at-end
`
	_, err := Load([]byte(bad), nil)
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestLoad_InvalidUserClass(t *testing.T) {
	bad := `
dataset: d
numServers: 1
times: 10
delays: [1]
userClass: not-a-real-variant
`
	_, err := Load([]byte(bad), nil)
	require.ErrorIs(t, err, ErrInvalidValue)
}

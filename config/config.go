// Package config loads the run's configuration document, grounded on
// CommSystemUtil.checkParams (required-key enforcement) and spec §6's
// "Configuration keys recognized" list. Keys belonging to the out-of-scope
// external collaborators (DataSource, Publisher, mask/color file readers,
// §1) are parsed and validated here, then handed through untouched — this
// package never itself reads psana, HDF5, or mask files.
package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lclsdet/parcorana/logging"
)

// UserClass selects one of the three correlation engine variants (spec §9).
type UserClass string

const (
	UserClassAtEnd                  UserClass = "at-end"
	UserClassIncrementalAccumulator UserClass = "incremental-accumulator"
	UserClassIncrementalWindowed    UserClass = "incremental-windowed"
)

// System is the full set of configuration keys recognized by a run (spec
// §6). Fields whose effect is bracketed there as belonging to an external
// collaborator are kept as opaque values, passed through to that
// collaborator's constructor by the caller in cmd/parcorana-run.
type System struct {
	// DataSource-facing (external collaborator, out of scope per §1).
	Dataset               string         `yaml:"dataset"`
	Src                   string         `yaml:"src"`
	PsanaType             string         `yaml:"psanaType"`
	NdarrayProducerOutKey string         `yaml:"ndarrayProducerOutKey"`
	NdarrayCalibOutKey    string         `yaml:"ndarrayCalibOutKey"`
	PsanaOptions          map[string]any `yaml:"psanaOptions"`
	OutputArrayType       string         `yaml:"outputArrayType"`
	WorkerStoreDtype      string         `yaml:"workerStoreDtype"`

	// Mask/color loader-facing (external collaborator, out of scope).
	MaskNdarrayCoords     string `yaml:"maskNdarrayCoords"`
	TestMaskNdarrayCoords string `yaml:"testMaskNdarrayCoords"`

	// Topology (spec §4.1).
	NumServers        int      `yaml:"numServers"`
	ServerHosts       []string `yaml:"serverHosts"`
	ServersRoundRobin bool     `yaml:"serversRoundRobin"`

	// Worker ring buffer and correlation engine (spec §3, §4.4).
	Times  int       `yaml:"times"`
	Delays []int     `yaml:"delays"`
	User   UserClass `yaml:"userClass"`

	// Master cadence (spec §4.3).
	Update int `yaml:"update"`

	// Publisher-facing (external collaborator, out of scope).
	H5Output     string `yaml:"h5output"`
	TestH5Output string `yaml:"testH5output"`
	Overwrite    bool   `yaml:"overwrite"`

	// Ambient.
	Verbosity     string `yaml:"verbosity"`
	NumEvents     int    `yaml:"numEvents"`
	TestNumEvents int    `yaml:"testNumEvents"`

	// UserParams carries userClass-specific parameters, the same way the
	// original's user_params dict does (spec §9 "user object").
	UserParams map[string]any `yaml:"userParams"`
}

var requiredKeys = []string{
	"dataset",
	"numServers",
	"times",
	"delays",
	"userClass",
}

var knownKeys = map[string]bool{
	"dataset": true, "src": true, "psanaType": true,
	"ndarrayProducerOutKey": true, "ndarrayCalibOutKey": true,
	"psanaOptions": true, "outputArrayType": true, "workerStoreDtype": true,
	"maskNdarrayCoords": true, "testMaskNdarrayCoords": true,
	"numServers": true, "serverHosts": true, "serversRoundRobin": true,
	"times": true, "delays": true, "userClass": true, "update": true,
	"h5output": true, "testH5output": true, "overwrite": true,
	"verbosity": true, "numEvents": true, "testNumEvents": true,
	"userParams": true,
}

// Load parses a YAML configuration document, enforcing the §7
// Configuration error class: missing required keys and type mismatches are
// fatal; unrecognized keys are only a warning (mirroring checkParams,
// which does the same for rank 0).
func Load(data []byte, log *logging.Logger) (*System, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	for k := range raw {
		if !knownKeys[k] {
			if log != nil {
				log.Warnf("config: unrecognized key %q (ignored)", k)
			}
		}
	}

	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingKey, k)
		}
	}

	var sys System
	if err := yaml.Unmarshal(data, &sys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	if err := sys.validate(); err != nil {
		return nil, err
	}
	return &sys, nil
}

func (s *System) validate() error {
	if s.NumServers < 1 {
		return fmt.Errorf("%w: numServers must be >= 1, got %d", ErrInvalidValue, s.NumServers)
	}
	if s.Times < 1 {
		return fmt.Errorf("%w: times (ring capacity) must be >= 1, got %d", ErrInvalidValue, s.Times)
	}
	if len(s.Delays) == 0 {
		return fmt.Errorf("%w: delays must be non-empty", ErrInvalidValue)
	}
	sorted := append([]int(nil), s.Delays...)
	sort.Ints(sorted)
	for i, d := range sorted {
		if d != s.Delays[i] {
			return fmt.Errorf("%w: delays must be listed in ascending order", ErrInvalidValue)
		}
		if d <= 0 {
			return fmt.Errorf("%w: delays must be positive, got %d", ErrInvalidValue, d)
		}
		if i > 0 && sorted[i] == sorted[i-1] {
			return fmt.Errorf("%w: delays must be unique, duplicate %d", ErrInvalidValue, d)
		}
	}
	switch s.User {
	case UserClassAtEnd, UserClassIncrementalAccumulator, UserClassIncrementalWindowed:
	default:
		return fmt.Errorf("%w: userClass %q is not one of at-end, incremental-accumulator, incremental-windowed", ErrInvalidValue, s.User)
	}
	if s.Update < 0 {
		return fmt.Errorf("%w: update must be >= 0, got %d", ErrInvalidValue, s.Update)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"

	"github.com/lclsdet/parcorana"
)

// ErrMissingKey and ErrInvalidValue are the two Configuration error-kind
// sentinels from spec §7; wrap them with fmt.Errorf("%w: ...") for
// diagnostic context, and match with errors.Is at call sites. Both chain to
// parcorana.ErrConfiguration so callers can match on the package-specific
// kind or on the root Configuration error class interchangeably.
var (
	ErrMissingKey   = fmt.Errorf("%w: %w", parcorana.ErrConfiguration, errors.New("config: missing required key"))
	ErrInvalidValue = fmt.Errorf("%w: %w", parcorana.ErrConfiguration, errors.New("config: invalid value"))
)

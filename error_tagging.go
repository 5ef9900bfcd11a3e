package parcorana

import (
	"errors"
	"fmt"
)

// RankMetaError exposes the failing role and rank for an error raised by a
// role loop, so the supervisor's abort log line can identify who triggered
// the world-abort without string-matching the error text.
type RankMetaError interface {
	error
	Unwrap() error
	Role() (Role, bool)
	Rank() (int, bool)
}

type rankTaggedError struct {
	err  error
	role Role
	rank int
}

func newRankTaggedError(err error, role Role, rank int) error {
	if err == nil {
		return nil
	}
	return &rankTaggedError{err: err, role: role, rank: rank}
}

func (e *rankTaggedError) Error() string { return e.err.Error() }
func (e *rankTaggedError) Unwrap() error { return e.err }

func (e *rankTaggedError) Role() (Role, bool) { return e.role, true }
func (e *rankTaggedError) Rank() (int, bool)  { return e.rank, true }

func (e *rankTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "rank(role=%s,rank=%d): %+v", e.role, e.rank, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractRole returns the role tagged onto err, if any.
func ExtractRole(err error) (Role, bool) {
	var rme RankMetaError
	if errors.As(err, &rme) {
		return rme.Role()
	}
	return 0, false
}

// ExtractRank returns the rank tagged onto err, if any.
func ExtractRank(err error) (int, bool) {
	var rme RankMetaError
	if errors.As(err, &rme) {
		return rme.Rank()
	}
	return 0, false
}

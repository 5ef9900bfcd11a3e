package parcorana

import (
	"context"
	"fmt"
)

// Role identifies one of the four fixed roles a rank can play.
type Role int

const (
	RoleServer Role = iota
	RoleMaster
	RoleViewer
	RoleWorker
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleMaster:
		return "master"
	case RoleViewer:
		return "viewer"
	case RoleWorker:
		return "worker"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// RoleResult is the value produced by a single rank's role loop when it
// returns, carried through the Supervisor's results channel.
type RoleResult struct {
	Role Role
	Rank int
	Err  error
}

// RoleFunc is a single rank's main loop. It must return when ctx is
// cancelled (cooperative abort) and otherwise return when its role's
// natural termination condition (END observed, generator exhausted) is met.
type RoleFunc func(ctx context.Context) error

// Package parcorana supervises the four rank roles of a G2 correlation
// run (server, master, viewer, worker) as long-lived goroutines coordinated
// through the channel-based world described in package comm.
//
// Construction
//   - NewSupervisor(n, opts ...Option): builds a Supervisor sized for n
//     ranks. Roles are attached with Register before Run is called.
//   - Run(ctx): starts every registered role loop, blocks until all of them
//     return, and returns the first role error (if any). The first role to
//     return a non-nil error triggers cancellation of the shared context,
//     which is the Go analogue of the world-abort described for this
//     system: every other role observes ctx.Done() and unwinds.
//
// Defaults
//   - ResultsBufferSize: 1024
//   - ErrorsBufferSize: 1024
//   - StopOnErrorErrorsBufferSize: 100
//
// Channel lifecycle
// Results and Errors are drained internally by Run; callers only see the
// first error it returns.
//
// Pools
//   - Fixed pool sized to the rank count: each role loop holds its pool
//     worker for its entire lifetime, so the Fixed pool never needs to grow.
package parcorana

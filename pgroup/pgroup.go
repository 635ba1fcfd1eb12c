// Package pgroup defines the process-group contract spec.md §6 consumes:
// rank/size discovery and an init-time barrier usable before RMA is up.
// Bootstrap and rank discovery themselves are out of scope (spec.md §1);
// this is the seam, plus a reference implementation under pgroup/static.
package pgroup

import "context"

// Group is the external collaborator providing PE identity and an
// init-time rendezvous point.
type Group interface {
	// MyPE returns the calling PE's rank in [0, NumPEs()).
	MyPE() int
	// NumPEs returns the fixed PE count of the job.
	NumPEs() int
	// Barrier rendezvous every PE in the group. Used once during
	// Runtime.Init, before any RMA primitive is available, per spec.md
	// §6.
	Barrier(ctx context.Context) error
}

// Package transport defines the Portals-like RDMA contract the core
// consumes (spec.md §6): per-region endpoints bound to the full local
// address space, one-sided Put/Get/Atomic/FetchAtomic/Swap primitives with
// ack-counted completion, and the NI limits that drive segmentation. The
// transport itself — a real Portals4 fabric, verbs, libfabric, whatever —
// is explicitly out of scope (spec.md §1); this package is the seam, plus
// the loopback reference implementation under transport/loopback.
package transport

import (
	"context"
	"fmt"

	"github.com/sandialabs/goshmem/dtype"
	"github.com/sandialabs/goshmem/region"
)

// SwapKind selects one of the compound Swap primitive's three forms
// (spec.md §4.3).
type SwapKind uint8

const (
	SwapUnconditional SwapKind = iota
	SwapCompare
	SwapMasked
)

// Target names a remote word: a peer PE plus a (region, offset) pair
// produced by the address resolver.
type Target struct {
	PE     int
	Region region.ID
	Offset uintptr
}

// Limits mirrors the ptl_ni_limits_t fields spec.md §6 says NIInit
// reports: max_ordered_size, max_put_size, max_atomic_size.
type Limits struct {
	MaxOrderedSize int
	MaxPutSize     int
	MaxAtomicSize  int
}

// Event is one dequeued completion, the Go analogue of ptl_event_t: OK
// carries the success/failure verdict, Code the raw ni_fail_type on
// failure.
type Event struct {
	OK   bool
	Code int
}

// EventFailure wraps a non-OK event's code as an error, per spec.md §7
// kind 3 (remote completion).
type EventFailure struct{ Code int }

func (e *EventFailure) Error() string {
	return fmt.Sprintf("remote completion failure, code %d", e.Code)
}

// Counter is a counting event: a monotonic tally of completed operations,
// waited upon by the initiator to drain in-flight work (spec.md
// GLOSSARY "Counting event").
type Counter interface {
	// Value returns the counter's current value.
	Value() uint64
	// Wait blocks until the counter reaches at least target, or ctx is
	// done. Per spec.md §5, waits are unbounded by design — a background
	// context.Background() call never returns early on its own.
	Wait(ctx context.Context, target uint64) error
}

// EventQueue is the optional per-operation event channel used when
// event-completion is enabled (spec.md §4.2).
type EventQueue interface {
	// Wait dequeues the next event, blocking until one is posted.
	Wait(ctx context.Context) (Event, error)
}

// Fencer is implemented by transports that can order operations to a
// single target without a global drain. Transports that only offer global
// ordering simply don't implement it; Runtime.Fence falls back to Quiet
// (spec.md §4.4: "an optimization flag indicates this").
type Fencer interface {
	Fence(ctx context.Context, pe int) error
}

// Transport is the one-sided RDMA contract: every method below either
// issues a non-blocking one-sided operation (ack-requested, so a Counter
// or EventQueue observes its completion) or reports the NI's segmentation
// limits. No method blocks for completion — that's the completion
// tracker's job (spec.md §4.2).
type Transport interface {
	// Limits reports the NI's segmentation thresholds, as discovered at
	// NIInit time in the original runtime.
	Limits() Limits

	// Put issues a one-sided, ack-requested put of src into t. Completion
	// increments PutCounter().
	Put(ctx context.Context, t Target, src []byte) error

	// Get issues a one-sided fetch of len(dst) bytes from t into dst.
	// Completion increments GetCounter().
	Get(ctx context.Context, dst []byte, t Target) error

	// Atomic applies op (of datatype dt) element-wise to t using src,
	// ack-requested. len(src) is a whole number of dt.Size() elements and
	// at most Limits().MaxAtomicSize bytes — the transfer engine is
	// responsible for segmenting larger buffers before calling Atomic
	// (plain atomics only; spec.md §4.3).
	Atomic(ctx context.Context, t Target, src []byte, dt dtype.Datatype, op dtype.Op) error

	// FetchAtomic applies op to t using src and returns t's pre-update
	// value in dst. len(src) (== len(dst)) must be <= dt.Size().
	FetchAtomic(ctx context.Context, dst []byte, t Target, src []byte, dt dtype.Datatype, op dtype.Op) error

	// Swap performs one of the three compound swap forms against t.
	// operand is the compare value for SwapCompare or the bitmask for
	// SwapMasked; it is ignored for SwapUnconditional.
	Swap(ctx context.Context, dst []byte, t Target, src []byte, dt dtype.Datatype, kind SwapKind, operand []byte) error

	// PutCounter is the counting event Quiet waits on for pending puts
	// and atomics to drain.
	PutCounter() Counter

	// GetCounter is the counting event get_wait (and Quiet) waits on for
	// pending gets, fetch-atomics, and swaps to drain.
	GetCounter() Counter

	// PutEvents returns the put event queue, or nil when event-completion
	// is disabled (spec.md §4.2's "optional" mode).
	PutEvents() EventQueue
}

package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/dtype"
	"github.com/sandialabs/goshmem/transport"
)

// target resolves a symmetric pointer on peer pe into a transport.Target,
// aborting with the usage error kind on an out-of-range address.
func (rt *Runtime) target(ptr uintptr, pe int) transport.Target {
	id, off := rt.resolve(ptr)
	return transport.Target{PE: pe, Region: id, Offset: off}
}

// buildSegments splits a buffer of length n into chunks no larger than
// max, the segmentation spec.md §4.3 requires for plain put and atomic
// (get, fetch-atomic, and swap are never segmented: they're bounded by
// WidestScalarSize already).
func buildSegments(n, max int) []int {
	if max <= 0 || n <= max {
		return []int{n}
	}
	segs := make([]int, 0, (n+max-1)/max)
	for n > 0 {
		s := max
		if s > n {
			s = n
		}
		segs = append(segs, s)
		n -= s
	}
	return segs
}

// Put copies src to a symmetric address on pe, segmenting into the
// transport's MaxPutSize chunks (spec.md §4.3). Completion is tracked but
// not waited on; the caller observes it via Quiet (or, inside this
// package, putWait).
func (rt *Runtime) Put(ctx context.Context, dst uintptr, pe int, src []byte) {
	t := rt.target(dst, pe)
	limits := rt.transport.Limits()
	off := 0
	for _, seg := range buildSegments(len(src), limits.MaxPutSize) {
		st := t
		st.Offset += uintptr(off)
		if err := rt.transport.Put(ctx, st, src[off:off+seg]); err != nil {
			rt.abortTransport(err)
			return
		}
		rt.completion.notePut(1)
		off += seg
	}
}

// Get fetches len(dst) bytes from a symmetric address on pe into dst.
// Unsegmented, matching spec.md §4.3's scalar-only get path; callers
// needing bulk transfer issue get against WidestScalarSize-sized pieces
// themselves, or use Put/Broadcast-style collectives instead.
func (rt *Runtime) Get(ctx context.Context, dst []byte, src uintptr, pe int) {
	rt.assertUsage(len(dst) <= dtype.WidestScalarSize, "shmem: Get: length %d exceeds widest scalar size %d", len(dst), dtype.WidestScalarSize)
	t := rt.target(src, pe)
	if err := rt.transport.Get(ctx, dst, t); err != nil {
		rt.abortTransport(err)
		return
	}
	rt.completion.noteGet(1)
	if err := rt.getWait(ctx); err != nil {
		rt.abortRemote(err)
	}
}

// Atomic applies op to a symmetric word on pe using src, segmenting a
// multi-element call into the transport's MaxAtomicSize chunks (spec.md
// §4.3). Each element must be exactly dt.Size() bytes.
func (rt *Runtime) Atomic(ctx context.Context, dst uintptr, pe int, src []byte, dt dtype.Datatype, op dtype.Op) {
	rt.assertUsage(dt.Admits(op), "shmem: Atomic: datatype %s does not admit op %s", dt, op)
	rt.assertUsage(len(src)%int(dt.Size()) == 0, "shmem: Atomic: length %d not a multiple of element size %d", len(src), dt.Size())
	t := rt.target(dst, pe)
	limits := rt.transport.Limits()
	maxElems := limits.MaxAtomicSize / int(dt.Size())
	if maxElems < 1 {
		maxElems = 1
	}
	maxBytes := maxElems * int(dt.Size())
	off := 0
	for _, seg := range buildSegments(len(src), maxBytes) {
		st := t
		st.Offset += uintptr(off)
		if err := rt.transport.Atomic(ctx, st, src[off:off+seg], dt, op); err != nil {
			rt.abortTransport(err)
			return
		}
		rt.completion.notePut(1)
		off += seg
	}
}

// FetchAtomic applies op to a symmetric word on pe and returns its
// pre-update value in dst. Unsegmented: len(src) == len(dst) == dt.Size().
func (rt *Runtime) FetchAtomic(ctx context.Context, dst []byte, target uintptr, pe int, src []byte, dt dtype.Datatype, op dtype.Op) {
	rt.assertUsage(dt.Admits(op), "shmem: FetchAtomic: datatype %s does not admit op %s", dt, op)
	rt.assertUsage(len(src) == int(dt.Size()) && len(dst) == int(dt.Size()), "shmem: FetchAtomic: length must equal element size %d", dt.Size())
	t := rt.target(target, pe)
	if err := rt.transport.FetchAtomic(ctx, dst, t, src, dt, op); err != nil {
		rt.abortTransport(err)
		return
	}
	rt.completion.noteGet(1)
	if err := rt.getWait(ctx); err != nil {
		rt.abortRemote(err)
	}
}

// Swap unconditionally exchanges src into a symmetric word on pe,
// returning the prior value in dst.
func (rt *Runtime) Swap(ctx context.Context, dst []byte, target uintptr, pe int, src []byte, dt dtype.Datatype) {
	rt.swap(ctx, dst, target, pe, src, dt, transport.SwapUnconditional, nil)
}

// CSwap swaps src into a symmetric word on pe only if its current value
// equals cmp, always returning the prior value in dst.
func (rt *Runtime) CSwap(ctx context.Context, dst []byte, target uintptr, pe int, cmp, src []byte, dt dtype.Datatype) {
	rt.swap(ctx, dst, target, pe, src, dt, transport.SwapCompare, cmp)
}

// MSwap swaps the masked bits of src into a symmetric word on pe, leaving
// the unmasked bits untouched, always returning the prior value in dst.
func (rt *Runtime) MSwap(ctx context.Context, dst []byte, target uintptr, pe int, mask, src []byte, dt dtype.Datatype) {
	rt.swap(ctx, dst, target, pe, src, dt, transport.SwapMasked, mask)
}

func (rt *Runtime) swap(ctx context.Context, dst []byte, targetAddr uintptr, pe int, src []byte, dt dtype.Datatype, kind transport.SwapKind, operand []byte) {
	rt.assertUsage(len(src) == int(dt.Size()) && len(dst) == int(dt.Size()), "shmem: Swap: length must equal element size %d", dt.Size())
	t := rt.target(targetAddr, pe)
	if err := rt.transport.Swap(ctx, dst, t, src, dt, kind, operand); err != nil {
		rt.abortTransport(err)
		return
	}
	rt.completion.noteGet(1)
	if err := rt.getWait(ctx); err != nil {
		rt.abortRemote(err)
	}
}

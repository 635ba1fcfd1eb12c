package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/dtype"
)

// pSync layout for Barrier: word 0 is the arrival tally a node's children
// (or, in the flat algorithm, every non-root) increment; word 1 is the
// release flag a parent (or the root) sets to wake waiters. Both words
// must be zero on entry and are restored to zero before return (spec.md
// §4.7).
const (
	barrierArrive  = 0
	barrierRelease = 1
)

// BarrierAll synchronizes every PE in the job, using the flat algorithm
// below the crossover and the cached whole-world tree otherwise (spec.md
// §4.7).
func (rt *Runtime) BarrierAll(ctx context.Context, pSync uintptr) error {
	return rt.instrument("barrier_all", 0, 1, rt.numPEs, func() error {
		return rt.barrier(ctx, pSync, 0, 1, rt.numPEs)
	})
}

// Barrier synchronizes the active set {start, start+stride, ...,
// start+(size-1)*stride} (spec.md §4.7).
func (rt *Runtime) Barrier(ctx context.Context, pSync uintptr, start, stride, size int) error {
	return rt.instrument("barrier", start, stride, size, func() error {
		return rt.barrier(ctx, pSync, start, stride, size)
	})
}

// barrier begins with a Quiet so the barrier implies completion of every
// RMA issued by this PE before the call (spec.md §4.7, §8) — matching the
// original's shmem_internal_barrier, which opens the same way.
func (rt *Runtime) barrier(ctx context.Context, pSync uintptr, start, stride, size int) error {
	if size <= 1 {
		return nil
	}
	if err := rt.Quiet(ctx); err != nil {
		return err
	}
	if rt.useFlat(size) {
		return rt.barrierFlat(ctx, pSync, start, stride, size)
	}
	return rt.barrierTree(ctx, pSync, start, stride, size)
}

// barrierFlat is plain fan-in-to-root, fan-out-from-root: every non-root
// bumps the root's arrival tally, then spins on its own release flag;
// the root spins for size-1 arrivals, then puts the release to everyone.
func (rt *Runtime) barrierFlat(ctx context.Context, pSync uintptr, start, stride, size int) error {
	root := start
	oneBytes := int64Bytes(1)

	if rt.myPE != root {
		rt.Atomic(ctx, psyncWord(pSync, barrierArrive), root, oneBytes, dtype.Int64, dtype.OpSum)
		WaitUntil(rt.localInt64(psyncWord(pSync, barrierRelease)), CmpNE, 0)
		*rt.localInt64(psyncWord(pSync, barrierRelease)) = 0
		return nil
	}

	WaitUntil(rt.localInt64(psyncWord(pSync, barrierArrive)), CmpGE, int64(size-1))
	*rt.localInt64(psyncWord(pSync, barrierArrive)) = 0
	for idx := 0; idx < size; idx++ {
		pe := start + idx*stride
		if pe == root {
			continue
		}
		rt.Put(ctx, psyncWord(pSync, barrierRelease), pe, oneBytes)
	}
	return rt.putWait(ctx)
}

// barrierTree runs the same fan-in/fan-out shape over the k-ary tree
// instead of a single root, so no PE ever waits on more than
// cfg.TreeRadix arrivals (spec.md §4.6, §4.7).
func (rt *Runtime) barrierTree(ctx context.Context, pSync uintptr, start, stride, size int) error {
	t := rt.activeSetTree(start, stride, size)
	oneBytes := int64Bytes(1)

	if len(t.Children) > 0 {
		WaitUntil(rt.localInt64(psyncWord(pSync, barrierArrive)), CmpGE, int64(len(t.Children)))
		*rt.localInt64(psyncWord(pSync, barrierArrive)) = 0
	}

	if t.Parent != -1 {
		rt.Atomic(ctx, psyncWord(pSync, barrierArrive), t.Parent, oneBytes, dtype.Int64, dtype.OpSum)
		WaitUntil(rt.localInt64(psyncWord(pSync, barrierRelease)), CmpNE, 0)
		*rt.localInt64(psyncWord(pSync, barrierRelease)) = 0
	}

	for _, child := range t.Children {
		rt.Put(ctx, psyncWord(pSync, barrierRelease), child, oneBytes)
	}
	if len(t.Children) > 0 {
		if err := rt.putWait(ctx); err != nil {
			return err
		}
	}
	return nil
}

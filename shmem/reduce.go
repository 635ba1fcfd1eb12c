package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/dtype"
)

// pSync layout for Reduce: word 0 counts children that have
// atomic-combined their partial result into this node's pWrk; word 1 is
// the broadcast-arrived flag used to fan the final result back out, same
// convention as Broadcast's own pSync; word 2 is the clear-to-send flag a
// parent sets once its pWrk holds its own contribution. All three zero on
// entry and exit.
const (
	reduceArrive    = 0
	reduceBroadcast = 1
	reduceClear     = 2
)

// Reduce combines src (nelems elements of datatype dt, combined with op)
// across the active set into dst on every PE — "op-to-all" (spec.md
// §4.7): reduce to the tree root via atomic combine, then broadcast the
// result back down. pWrk is a scratch symmetric buffer of the same
// nelems*dt.Size() shape children atomic-combine their partials into.
func (rt *Runtime) Reduce(ctx context.Context, dst, src uintptr, nelems int, dt dtype.Datatype, op dtype.Op, start, stride, size int, pSync, pWrk uintptr) error {
	rt.assertUsage(dt.Admits(op), "shmem: Reduce: datatype %s does not admit op %s", dt, op)
	return rt.instrument("reduce_"+op.String(), start, stride, size, func() error {
		return rt.reduce(ctx, dst, src, nelems, dt, op, start, stride, size, pSync, pWrk)
	})
}

func (rt *Runtime) reduce(ctx context.Context, dst, src uintptr, nelems int, dt dtype.Datatype, op dtype.Op, start, stride, size int, pSync, pWrk uintptr) error {
	nbytes := nelems * int(dt.Size())

	if size <= 1 {
		rt.localCopy(dst, src, nbytes)
		return nil
	}

	root := start
	t := BuildKaryTree(start, stride, size, root, rt.cfg.TreeRadix, rt.myPE)

	// Seed this node's scratch buffer with its own contribution so
	// children's atomic combines fold into it in place.
	rt.localCopy(pWrk, src, nbytes)

	// Clear each child to send only now, so the seed copy above can never
	// overwrite a child's combine that arrived first.
	for _, child := range t.Children {
		rt.Put(ctx, psyncWord(pSync, reduceClear), child, int64Bytes(1))
	}
	if len(t.Children) > 0 {
		if err := rt.putWait(ctx); err != nil {
			return err
		}
		WaitUntil(rt.localInt64(psyncWord(pSync, reduceArrive)), CmpGE, int64(len(t.Children)))
		*rt.localInt64(psyncWord(pSync, reduceArrive)) = 0
	}

	if t.Parent != -1 {
		WaitUntil(rt.localInt64(psyncWord(pSync, reduceClear)), CmpNE, 0)
		*rt.localInt64(psyncWord(pSync, reduceClear)) = 0
		local, ok := rt.Ptr(pWrk, rt.myPE)
		rt.assertUsage(ok, "shmem: Reduce: pWrk address 0x%x not resolvable", pWrk)
		rt.Atomic(ctx, pWrk, t.Parent, unsafeBytes(local, nbytes), dt, op)
		// Order the data atomic ahead of the arrival ack: without this
		// fence the parent could observe the ack before the combine it
		// guards and fold an incomplete partial (spec.md §5(c)).
		if err := rt.Fence(ctx, t.Parent); err != nil {
			return err
		}
		rt.Atomic(ctx, psyncWord(pSync, reduceArrive), t.Parent, int64Bytes(1), dtype.Int64, dtype.OpSum)
		if err := rt.putWait(ctx); err != nil {
			return err
		}
		// The parent's fan-out loop below already Put the finalized
		// result directly into this node's dst before signaling, so
		// there's nothing to copy locally — only relay it onward.
		WaitUntil(rt.localInt64(psyncWord(pSync, reduceBroadcast)), CmpNE, 0)
		*rt.localInt64(psyncWord(pSync, reduceBroadcast)) = 0
		for _, child := range t.Children {
			rt.copyPayload(ctx, dst, child, dst, nbytes)
			if err := rt.Fence(ctx, child); err != nil {
				return err
			}
			rt.Put(ctx, psyncWord(pSync, reduceBroadcast), child, int64Bytes(1))
		}
		if len(t.Children) > 0 {
			return rt.putWait(ctx)
		}
		return nil
	}

	// Root: pWrk now holds the fully combined result.
	rt.localCopy(dst, pWrk, nbytes)
	for _, child := range t.Children {
		rt.copyPayload(ctx, dst, child, dst, nbytes)
		if err := rt.Fence(ctx, child); err != nil {
			return err
		}
		rt.Put(ctx, psyncWord(pSync, reduceBroadcast), child, int64Bytes(1))
	}
	if len(t.Children) > 0 {
		return rt.putWait(ctx)
	}
	return nil
}

// localCopy copies nbytes between two symmetric addresses resolved on
// this PE's own heap — no RMA, since both ends are local.
func (rt *Runtime) localCopy(dst, src uintptr, nbytes int) {
	dl, ok := rt.Ptr(dst, rt.myPE)
	rt.assertUsage(ok, "shmem: localCopy: dst address 0x%x not resolvable", dst)
	sl, ok := rt.Ptr(src, rt.myPE)
	rt.assertUsage(ok, "shmem: localCopy: src address 0x%x not resolvable", src)
	copy(unsafeBytes(dl, nbytes), unsafeBytes(sl, nbytes))
}

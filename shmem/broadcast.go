package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/dtype"
)

// pSync layout for Broadcast: word 0 signals "the payload is in your dst
// buffer", propagated down the tree (spec.md §4.7). Word 1 is the
// completion-ack tally used only when complete is true: each node fans its
// own children's acks into one ack relayed to its parent, so the root
// learns only once every PE in the active set holds the broadcast data.
// Both words are zero on entry and are restored to zero before return.
const (
	broadcastArrived = 0
	broadcastAck     = 1
)

// Broadcast copies nbytes from src on root to dst on every other PE in
// the active set {start, start+stride, ..., start+(size-1)*stride},
// relaying hop-by-hop down the k-ary tree (or directly, flat, below the
// crossover) so no single PE originates more than cfg.TreeRadix copies.
// Each hop is a segmented Put of the payload followed by a Fence and a
// one-word arrival Put, so a receiver never observes the signal before
// the data it guards (spec.md §4.7). complete, when true, makes every
// non-root PE atomically ack back up the tree once it holds the data,
// and makes the root wait for every ack before returning — so the root
// doesn't return (and isn't free to reuse src) until the whole active set
// has the broadcast, not merely until its own Puts are issued.
func (rt *Runtime) Broadcast(ctx context.Context, dst, src uintptr, nbytes int, root, start, stride, size int, pSync uintptr, complete bool) error {
	return rt.instrument("broadcast", start, stride, size, func() error {
		if size <= 1 {
			return nil
		}
		if rt.useFlat(size) {
			return rt.broadcastFlat(ctx, dst, src, nbytes, root, start, stride, size, pSync, complete)
		}
		return rt.broadcastTree(ctx, dst, src, nbytes, root, start, stride, size, pSync, complete)
	})
}

func (rt *Runtime) broadcastFlat(ctx context.Context, dst, src uintptr, nbytes int, root, start, stride, size int, pSync uintptr, complete bool) error {
	if rt.myPE == root {
		for idx := 0; idx < size; idx++ {
			pe := start + idx*stride
			if pe == root {
				continue
			}
			rt.copyPayload(ctx, dst, pe, src, nbytes)
			if err := rt.Fence(ctx, pe); err != nil {
				return err
			}
			rt.Put(ctx, psyncWord(pSync, broadcastArrived), pe, int64Bytes(1))
		}
		if err := rt.putWait(ctx); err != nil {
			return err
		}
		if complete {
			WaitUntil(rt.localInt64(psyncWord(pSync, broadcastAck)), CmpGE, int64(size-1))
			*rt.localInt64(psyncWord(pSync, broadcastAck)) = 0
		}
		return nil
	}

	WaitUntil(rt.localInt64(psyncWord(pSync, broadcastArrived)), CmpNE, 0)
	*rt.localInt64(psyncWord(pSync, broadcastArrived)) = 0
	if complete {
		rt.Atomic(ctx, psyncWord(pSync, broadcastAck), root, int64Bytes(1), dtype.Int64, dtype.OpSum)
		return rt.putWait(ctx)
	}
	return nil
}

func (rt *Runtime) broadcastTree(ctx context.Context, dst, src uintptr, nbytes int, root, start, stride, size int, pSync uintptr, complete bool) error {
	t := BuildKaryTree(start, stride, size, root, rt.cfg.TreeRadix, rt.myPE)

	// t.Parent == -1 only for the root, which always already holds the
	// payload at src; every relay node waits for its parent's signal and
	// then forwards from its own dst, which the parent's hop just filled.
	payloadSrc := src
	if t.Parent != -1 {
		WaitUntil(rt.localInt64(psyncWord(pSync, broadcastArrived)), CmpNE, 0)
		*rt.localInt64(psyncWord(pSync, broadcastArrived)) = 0
		payloadSrc = dst
	}

	for _, child := range t.Children {
		rt.copyPayload(ctx, dst, child, payloadSrc, nbytes)
		if err := rt.Fence(ctx, child); err != nil {
			return err
		}
		rt.Put(ctx, psyncWord(pSync, broadcastArrived), child, int64Bytes(1))
	}
	if len(t.Children) > 0 {
		if err := rt.putWait(ctx); err != nil {
			return err
		}
	}

	if !complete {
		return nil
	}

	// Completion ack: fan in every child's ack (same shape as Barrier's
	// and Reduce's arrival tally), then relay a single ack up to our own
	// parent, so the root learns only once the whole tree holds the data.
	if len(t.Children) > 0 {
		WaitUntil(rt.localInt64(psyncWord(pSync, broadcastAck)), CmpGE, int64(len(t.Children)))
		*rt.localInt64(psyncWord(pSync, broadcastAck)) = 0
	}
	if t.Parent != -1 {
		rt.Atomic(ctx, psyncWord(pSync, broadcastAck), t.Parent, int64Bytes(1), dtype.Int64, dtype.OpSum)
		return rt.putWait(ctx)
	}
	return nil
}

// copyPayload relays a buffer already resident at payloadSrc on this PE
// to dst on peer, using the local heap as scratch for the read side of
// the RMA put (symmetric addresses read locally need no transport call).
func (rt *Runtime) copyPayload(ctx context.Context, dst uintptr, pe int, payloadSrc uintptr, nbytes int) {
	local, ok := rt.Ptr(payloadSrc, rt.myPE)
	rt.assertUsage(ok, "shmem: broadcast: payload address 0x%x not resolvable", payloadSrc)
	buf := unsafeBytes(local, nbytes)
	rt.Put(ctx, dst, pe, buf)
}

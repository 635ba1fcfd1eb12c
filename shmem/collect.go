package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/dtype"
)

// pSync layout for Collect: word 0 carries the byte offset a PE's chunk
// belongs at in the concatenated result, word 1 is the ready flag the
// predecessor sets once it has written word 0; word 2 is the root's
// gather-arrival tally, word 3 the root's release flag. All four zero on
// entry/exit.
const (
	collectOffset = 0
	collectReady  = 1
	collectArrive = 2
	collectDone   = 3
)

// Collect concatenates each active-set PE's variable-length contribution
// (src, mybytes bytes) into dst, identically ordered on every PE, by
// chaining the running offset down the set in (start, stride) order
// before each PE fans its own chunk out to everyone (spec.md §4.7). Each
// PE's own dst offset becomes available via its returned value so the
// caller can size dst ahead of the call using a preceding length
// exchange (e.g. Fcollect of the lengths themselves).
//
// The offset chain alone only orders the writes — it doesn't tell any PE
// that every other participant's chunk has actually landed in its dst.
// Collect therefore closes with a gather-to-root arrival count and a
// root-issued release, mirroring the original's pSync[2] == PE_size gather
// count followed by a completion broadcast, so every participant returns
// only once the full concatenation is present in its own dst.
func (rt *Runtime) Collect(ctx context.Context, dst, src uintptr, mybytes int, start, stride, size int, pSync uintptr) (offset int, err error) {
	err = rt.instrument("collect", start, stride, size, func() error {
		offset, err = rt.collect(ctx, dst, src, mybytes, start, stride, size, pSync)
		return err
	})
	return offset, err
}

func (rt *Runtime) collect(ctx context.Context, dst, src uintptr, mybytes int, start, stride, size int, pSync uintptr) (offset int, err error) {
	if size <= 1 {
		rt.localCopy(dst, src, mybytes)
		return 0, nil
	}

	idx := (rt.myPE - start) / stride
	if idx > 0 {
		WaitUntil(rt.localInt64(psyncWord(pSync, collectReady)), CmpNE, 0)
		offset = int(*rt.localInt64(psyncWord(pSync, collectOffset)))
		*rt.localInt64(psyncWord(pSync, collectOffset)) = 0
		*rt.localInt64(psyncWord(pSync, collectReady)) = 0
	}

	for i := 0; i < size; i++ {
		pe := start + i*stride
		if pe == rt.myPE {
			rt.localCopy(dst+uintptr(offset), src, mybytes)
			continue
		}
		rt.copyPayload(ctx, dst+uintptr(offset), pe, src, mybytes)
	}
	if err = rt.putWait(ctx); err != nil {
		return offset, err
	}

	if idx < size-1 {
		next := start + (idx+1)*stride
		rt.Put(ctx, psyncWord(pSync, collectOffset), next, int64Bytes(int64(offset+mybytes)))
		if err = rt.putWait(ctx); err != nil {
			return offset, err
		}
		rt.Put(ctx, psyncWord(pSync, collectReady), next, int64Bytes(1))
		if err = rt.putWait(ctx); err != nil {
			return offset, err
		}
	}

	// Gather: every PE, including the root, acks once its own chunk has
	// been written to every peer's dst. The root waits for all size acks,
	// then releases everyone — no PE returns before the whole
	// concatenation is guaranteed complete on every participant.
	root := start
	rt.Atomic(ctx, psyncWord(pSync, collectArrive), root, int64Bytes(1), dtype.Int64, dtype.OpSum)
	if err = rt.putWait(ctx); err != nil {
		return offset, err
	}

	if rt.myPE == root {
		WaitUntil(rt.localInt64(psyncWord(pSync, collectArrive)), CmpGE, int64(size))
		*rt.localInt64(psyncWord(pSync, collectArrive)) = 0
		for i := 0; i < size; i++ {
			pe := start + i*stride
			if pe == root {
				continue
			}
			rt.Put(ctx, psyncWord(pSync, collectDone), pe, int64Bytes(1))
		}
		if err = rt.putWait(ctx); err != nil {
			return offset, err
		}
	} else {
		WaitUntil(rt.localInt64(psyncWord(pSync, collectDone)), CmpNE, 0)
		*rt.localInt64(psyncWord(pSync, collectDone)) = 0
	}

	return offset, nil
}

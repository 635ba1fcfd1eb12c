package shmem

import "context"

// Fcollect gathers every active-set PE's fixed-size chunk (src,
// bytesPerPE bytes) into dst at its direct offset idx*bytesPerPE, where
// idx is the PE's position in (start, stride) order — no offset chaining
// needed since every chunk is the same size (spec.md §4.7). A barrier
// over pSync closes out the call so no PE reads dst before every chunk
// has landed.
func (rt *Runtime) Fcollect(ctx context.Context, dst, src uintptr, bytesPerPE int, start, stride, size int, pSync uintptr) error {
	return rt.instrument("fcollect", start, stride, size, func() error {
		return rt.fcollect(ctx, dst, src, bytesPerPE, start, stride, size, pSync)
	})
}

func (rt *Runtime) fcollect(ctx context.Context, dst, src uintptr, bytesPerPE int, start, stride, size int, pSync uintptr) error {
	if size <= 1 {
		rt.localCopy(dst, src, bytesPerPE)
		return nil
	}

	idx := (rt.myPE - start) / stride
	offset := uintptr(idx * bytesPerPE)

	for i := 0; i < size; i++ {
		pe := start + i*stride
		if pe == rt.myPE {
			rt.localCopy(dst+offset, src, bytesPerPE)
			continue
		}
		rt.copyPayload(ctx, dst+offset, pe, src, bytesPerPE)
	}
	if err := rt.putWait(ctx); err != nil {
		return err
	}
	return rt.barrier(ctx, pSync, start, stride, size)
}

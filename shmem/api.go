package shmem

import (
	"context"
	"encoding/binary"

	"github.com/sandialabs/goshmem/dtype"
)

// This file is the public per-datatype surface spec.md §6 enumerates:
// thin, fixed-width wrappers over the byte-oriented transfer engine and
// collectives built in transfer.go, reduce.go, broadcast.go, collect.go,
// and fcollect.go. The 32/64 suffix follows the original naming
// (shmem_int32_put, shmem_int64_sum_to_all, ...).

func i32Bytes(v int32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, uint32(v)); return b }
func i64Bytes(v int64) []byte { return int64Bytes(v) }
func bytesI32(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) }
func bytesI64(b []byte) int64 { return bytesInt64(b) }

// Put32/Put64 copy a single scalar to a symmetric address on pe.
func (rt *Runtime) Put32(ctx context.Context, dst uintptr, pe int, v int32) { rt.Put(ctx, dst, pe, i32Bytes(v)) }
func (rt *Runtime) Put64(ctx context.Context, dst uintptr, pe int, v int64) { rt.Put(ctx, dst, pe, i64Bytes(v)) }

// Get32/Get64 fetch a single scalar from a symmetric address on pe.
func (rt *Runtime) Get32(ctx context.Context, src uintptr, pe int) int32 {
	buf := make([]byte, 4)
	rt.Get(ctx, buf, src, pe)
	return bytesI32(buf)
}
func (rt *Runtime) Get64(ctx context.Context, src uintptr, pe int) int64 {
	buf := make([]byte, 8)
	rt.Get(ctx, buf, src, pe)
	return bytesI64(buf)
}

// Add32/Add64 atomically add v into the symmetric word on pe.
func (rt *Runtime) Add32(ctx context.Context, dst uintptr, pe int, v int32) {
	rt.Atomic(ctx, dst, pe, i32Bytes(v), dtype.Int32, dtype.OpSum)
}
func (rt *Runtime) Add64(ctx context.Context, dst uintptr, pe int, v int64) {
	rt.Atomic(ctx, dst, pe, i64Bytes(v), dtype.Int64, dtype.OpSum)
}

// And32/Or32/Xor32 (and the 64-bit equivalents) atomically combine v
// into the symmetric word on pe with the named bitwise operator.
func (rt *Runtime) And32(ctx context.Context, dst uintptr, pe int, v int32) {
	rt.Atomic(ctx, dst, pe, i32Bytes(v), dtype.Int32, dtype.OpAnd)
}
func (rt *Runtime) Or32(ctx context.Context, dst uintptr, pe int, v int32) {
	rt.Atomic(ctx, dst, pe, i32Bytes(v), dtype.Int32, dtype.OpOr)
}
func (rt *Runtime) Xor32(ctx context.Context, dst uintptr, pe int, v int32) {
	rt.Atomic(ctx, dst, pe, i32Bytes(v), dtype.Int32, dtype.OpXor)
}
func (rt *Runtime) And64(ctx context.Context, dst uintptr, pe int, v int64) {
	rt.Atomic(ctx, dst, pe, i64Bytes(v), dtype.Int64, dtype.OpAnd)
}
func (rt *Runtime) Or64(ctx context.Context, dst uintptr, pe int, v int64) {
	rt.Atomic(ctx, dst, pe, i64Bytes(v), dtype.Int64, dtype.OpOr)
}
func (rt *Runtime) Xor64(ctx context.Context, dst uintptr, pe int, v int64) {
	rt.Atomic(ctx, dst, pe, i64Bytes(v), dtype.Int64, dtype.OpXor)
}

// FetchAdd32/64 atomically add v into the symmetric word on pe and
// return its pre-update value.
func (rt *Runtime) FetchAdd32(ctx context.Context, dst uintptr, pe int, v int32) int32 {
	old := make([]byte, 4)
	rt.FetchAtomic(ctx, old, dst, pe, i32Bytes(v), dtype.Int32, dtype.OpSum)
	return bytesI32(old)
}
func (rt *Runtime) FetchAdd64(ctx context.Context, dst uintptr, pe int, v int64) int64 {
	old := make([]byte, 8)
	rt.FetchAtomic(ctx, old, dst, pe, i64Bytes(v), dtype.Int64, dtype.OpSum)
	return bytesI64(old)
}

// FetchInc32/64 is FetchAdd with v == 1, the common "claim a slot" idiom.
func (rt *Runtime) FetchInc32(ctx context.Context, dst uintptr, pe int) int32 { return rt.FetchAdd32(ctx, dst, pe, 1) }
func (rt *Runtime) FetchInc64(ctx context.Context, dst uintptr, pe int) int64 { return rt.FetchAdd64(ctx, dst, pe, 1) }

// Swap32/64 unconditionally exchanges v into the symmetric word on pe,
// returning its prior value.
func (rt *Runtime) Swap32(ctx context.Context, dst uintptr, pe int, v int32) int32 {
	old := make([]byte, 4)
	rt.Swap(ctx, old, dst, pe, i32Bytes(v), dtype.Int32)
	return bytesI32(old)
}
func (rt *Runtime) Swap64(ctx context.Context, dst uintptr, pe int, v int64) int64 {
	old := make([]byte, 8)
	rt.Swap(ctx, old, dst, pe, i64Bytes(v), dtype.Int64)
	return bytesI64(old)
}

// CSwap32/64 swaps v into the symmetric word on pe only if its current
// value equals cmp, always returning the prior value.
func (rt *Runtime) CSwap32(ctx context.Context, dst uintptr, pe int, cmp, v int32) int32 {
	old := make([]byte, 4)
	rt.CSwap(ctx, old, dst, pe, i32Bytes(cmp), i32Bytes(v), dtype.Int32)
	return bytesI32(old)
}
func (rt *Runtime) CSwap64(ctx context.Context, dst uintptr, pe int, cmp, v int64) int64 {
	old := make([]byte, 8)
	rt.CSwap(ctx, old, dst, pe, i64Bytes(cmp), i64Bytes(v), dtype.Int64)
	return bytesI64(old)
}

// Broadcast32/64 broadcasts nelems scalars from root to dst on every
// other active-set PE.
func (rt *Runtime) Broadcast32(ctx context.Context, dst, src uintptr, nelems, root, start, stride, size int, pSync uintptr, complete bool) error {
	return rt.Broadcast(ctx, dst, src, nelems*4, root, start, stride, size, pSync, complete)
}
func (rt *Runtime) Broadcast64(ctx context.Context, dst, src uintptr, nelems, root, start, stride, size int, pSync uintptr, complete bool) error {
	return rt.Broadcast(ctx, dst, src, nelems*8, root, start, stride, size, pSync, complete)
}

// Collect32/64 concatenates each PE's nelems-scalar contribution.
func (rt *Runtime) Collect32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync uintptr) (int, error) {
	return rt.Collect(ctx, dst, src, nelems*4, start, stride, size, pSync)
}
func (rt *Runtime) Collect64(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync uintptr) (int, error) {
	return rt.Collect(ctx, dst, src, nelems*8, start, stride, size, pSync)
}

// Fcollect32/64 gathers each PE's fixed nelems-scalar chunk by direct
// offset.
func (rt *Runtime) Fcollect32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync uintptr) error {
	return rt.Fcollect(ctx, dst, src, nelems*4, start, stride, size, pSync)
}
func (rt *Runtime) Fcollect64(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync uintptr) error {
	return rt.Fcollect(ctx, dst, src, nelems*8, start, stride, size, pSync)
}

// reduceToAll is shared by every {Op}ToAll wrapper below.
func (rt *Runtime) reduceToAll(ctx context.Context, dst, src uintptr, nelems int, dt dtype.Datatype, op dtype.Op, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.Reduce(ctx, dst, src, nelems, dt, op, start, stride, size, pSync, pWrk)
}

func (rt *Runtime) SumToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpSum, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) SumToAll64(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int64, dtype.OpSum, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) ProdToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpProd, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) ProdToAll64(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int64, dtype.OpProd, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) MinToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpMin, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) MaxToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpMax, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) AndToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpAnd, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) OrToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpOr, start, stride, size, pSync, pWrk)
}
func (rt *Runtime) XorToAll32(ctx context.Context, dst, src uintptr, nelems, start, stride, size int, pSync, pWrk uintptr) error {
	return rt.reduceToAll(ctx, dst, src, nelems, dtype.Int32, dtype.OpXor, start, stride, size, pSync, pWrk)
}

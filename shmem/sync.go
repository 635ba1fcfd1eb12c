package shmem

import "unsafe"

// localInt64 resolves a symmetric pointer that names a word in this PE's
// own symmetric heap into a directly-addressable *int64, for the pSync
// bookkeeping every collective does against its own slots without going
// through the transport (spec.md §4.7: pSync entries a PE reads are
// always its own).
func (rt *Runtime) localInt64(addr uintptr) *int64 {
	local, ok := rt.Ptr(addr, rt.myPE)
	rt.assertUsage(ok, "shmem: pSync address 0x%x not resolvable on PE %d", addr, rt.myPE)
	return (*int64)(unsafe.Pointer(local))
}

func psyncWord(base uintptr, i int) uintptr { return base + uintptr(i)*8 }

// activeSetTree builds (or reuses the cached whole-world) k-ary tree for
// the active set {start, start+stride, ..., start+(size-1)*stride} rooted
// at `start`. The choice between the flat and tree algorithms is made by
// useFlat, not here.
func (rt *Runtime) activeSetTree(start, stride, size int) Tree {
	if start == 0 && stride == 1 && size == rt.numPEs {
		return rt.fullTree
	}
	return BuildKaryTree(start, stride, size, start, rt.cfg.TreeRadix, rt.myPE)
}

func (rt *Runtime) useFlat(size int) bool {
	return size < rt.cfg.TreeCrossover
}

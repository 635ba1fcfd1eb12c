package mmapheap

import "unsafe"

// sliceAddr returns the virtual address of a byte slice's backing array —
// the "local virtual address" spec.md §3 says a symmetric pointer actually
// is. Empty slices still have a valid (non-dereferenceable) backing
// pointer from mmap, since New never maps zero-length regions.
func sliceAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

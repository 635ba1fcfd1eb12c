// Package mmapheap is a reference implementation of the out-of-scope
// "symmetric-heap allocator" collaborator (spec.md §1): it backs the data
// and heap regions with anonymous mmap'd byte slices so the core has real
// addresses to resolve, segment, and spin-wait on in tests and the demo
// harness. Production deployments supply their own allocator; this one
// exists to exercise region.Table end to end.
package mmapheap

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/sandialabs/goshmem/region"
)

// Heap owns two anonymous mmap'd regions: data and heap, in the SHMEM
// sense (the latter backing shmalloc-style symmetric allocations, the
// former backing a PE's static/global symmetric variables).
type Heap struct {
	Data []byte
	Heap []byte
}

// New mmaps dataLen bytes for the data segment and heapLen bytes for the
// symmetric heap, both PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANONYMOUS.
func New(dataLen, heapLen int) (*Heap, error) {
	data, err := mmapAnon(dataLen)
	if err != nil {
		return nil, fmt.Errorf("mmapheap: data segment: %w", err)
	}
	heap, err := mmapAnon(heapLen)
	if err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("mmapheap: heap segment: %w", err)
	}
	return &Heap{Data: data, Heap: heap}, nil
}

func mmapAnon(length int) ([]byte, error) {
	if length <= 0 {
		length = unix.Getpagesize()
	}
	return unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// Close releases both mappings.
func (h *Heap) Close() error {
	var firstErr error
	if h.Data != nil {
		if err := unix.Munmap(h.Data); err != nil && firstErr == nil {
			firstErr = err
		}
		h.Data = nil
	}
	if h.Heap != nil {
		if err := unix.Munmap(h.Heap); err != nil && firstErr == nil {
			firstErr = err
		}
		h.Heap = nil
	}
	return firstErr
}

// Descriptors returns the (base, length) pairs for region.NewTable,
// computed from the mmap'd slices' own backing addresses.
func (h *Heap) Descriptors() []region.Descriptor {
	return []region.Descriptor{
		{ID: region.Data, Base: sliceAddr(h.Data), Length: uintptr(len(h.Data))},
		{ID: region.Heap, Base: sliceAddr(h.Heap), Length: uintptr(len(h.Heap))},
	}
}

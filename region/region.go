// Package region implements the address resolver of spec.md §4.1: a small
// table of (base, length, id) descriptors classifying a symmetric pointer
// into a region id and byte offset.
package region

import (
	"fmt"
)

// ID is one of the two stable region identifiers established at init and
// never changed thereafter (spec.md §3).
type ID uint8

const (
	Data ID = iota
	Heap
	numRegions
)

func (id ID) String() string {
	switch id {
	case Data:
		return "data"
	case Heap:
		return "heap"
	default:
		return fmt.Sprintf("region(%d)", uint8(id))
	}
}

// Descriptor is the (base, length) pair the symmetric-heap/data-segment
// allocator installs at init for one region.
type Descriptor struct {
	ID     ID
	Base   uintptr
	Length uintptr
}

// OutOfRangeError is the usage error spec.md §4.1/§7 requires: a fatal,
// PE-tagged diagnostic for any pointer outside both symmetric regions.
type OutOfRangeError struct {
	Addr uintptr
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("target (0x%x) outside of symmetric areas", e.Addr)
}

// Table is the two-entry descriptor table installed once at init and read
// thereafter — design note "Address classification": the lookup is two
// branch-predictable comparisons on the fast path, not four pointer
// comparisons spread across two if/else-if chains.
type Table struct {
	descs [numRegions]Descriptor
	set   [numRegions]bool
}

// NewTable builds the resolver's descriptor table from the region
// descriptors the allocator installed. Both regions must be supplied
// exactly once; a missing, duplicate, or unknown descriptor is returned
// as an error.
func NewTable(descs ...Descriptor) (*Table, error) {
	t := &Table{}
	for _, d := range descs {
		if d.ID >= numRegions {
			return nil, fmt.Errorf("region: unknown region id %d", d.ID)
		}
		if t.set[d.ID] {
			return nil, fmt.Errorf("region: duplicate descriptor for %s", d.ID)
		}
		t.descs[d.ID] = d
		t.set[d.ID] = true
	}
	for id := ID(0); id < numRegions; id++ {
		if !t.set[id] {
			return nil, fmt.Errorf("region: missing descriptor for %s", id)
		}
	}
	return t, nil
}

// Descriptor returns the installed (base, length) pair for id.
func (t *Table) Descriptor(id ID) Descriptor { return t.descs[id] }

// Resolve classifies ptr into a region id and byte offset. Unsigned
// byte-pointer arithmetic, length exclusive upper bound, per spec.md §4.1.
func (t *Table) Resolve(ptr uintptr) (ID, uintptr, error) {
	for id := ID(0); id < numRegions; id++ {
		d := t.descs[id]
		if ptr >= d.Base && ptr < d.Base+d.Length {
			return id, ptr - d.Base, nil
		}
	}
	return 0, 0, &OutOfRangeError{Addr: ptr}
}

// Translate is the inverse of Resolve: given a region+offset, compute the
// local virtual address — used by Runtime.Ptr (spec.md §6 "pointer
// translation") for same-node remote access.
func (t *Table) Translate(id ID, offset uintptr) uintptr {
	return t.descs[id].Base + offset
}

package mmapheap

import (
	"testing"

	"github.com/sandialabs/goshmem/region"
)

func TestNewAndDescriptors(t *testing.T) {
	h, err := New(4096, 8192)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	if len(h.Data) != 4096 || len(h.Heap) != 8192 {
		t.Fatalf("unexpected region sizes: data=%d heap=%d", len(h.Data), len(h.Heap))
	}

	descs := h.Descriptors()
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	table, err := region.NewTable(descs...)
	if err != nil {
		t.Fatalf("region.NewTable: %v", err)
	}

	dataAddr := sliceAddr(h.Data)
	id, off, err := table.Resolve(dataAddr + 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != region.Data || off != 10 {
		t.Fatalf("Resolve(dataAddr+10) = (%v, %d), want (Data, 10)", id, off)
	}
}

func TestNewDefaultsLengthToPageSize(t *testing.T) {
	h, err := New(0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()
	if len(h.Data) == 0 || len(h.Heap) == 0 {
		t.Fatal("zero-length regions should default to a page size")
	}
}

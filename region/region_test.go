package region

import "testing"

func TestNewTableRequiresBothRegions(t *testing.T) {
	if _, err := NewTable(Descriptor{ID: Data, Base: 0x1000, Length: 16}); err == nil {
		t.Fatal("expected error for missing heap descriptor")
	}
	if _, err := NewTable(
		Descriptor{ID: Data, Base: 0x1000, Length: 16},
		Descriptor{ID: Data, Base: 0x2000, Length: 16},
	); err == nil {
		t.Fatal("expected error for duplicate region descriptor")
	}
}

func TestResolveAndTranslate(t *testing.T) {
	table, err := NewTable(
		Descriptor{ID: Data, Base: 0x1000, Length: 16},
		Descriptor{ID: Heap, Base: 0x2000, Length: 32},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	id, off, err := table.Resolve(0x2010)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != Heap || off != 0x10 {
		t.Fatalf("Resolve(0x2010) = (%v, 0x%x), want (Heap, 0x10)", id, off)
	}
	if got := table.Translate(Heap, 0x10); got != 0x2010 {
		t.Fatalf("Translate(Heap, 0x10) = 0x%x, want 0x2010", got)
	}

	if _, _, err := table.Resolve(0x2020); err == nil {
		t.Fatal("expected out-of-range error at the exclusive upper bound")
	}
	if _, _, err := table.Resolve(0x500); err == nil {
		t.Fatal("expected out-of-range error below every region")
	}
}

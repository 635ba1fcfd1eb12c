package shmem

import "testing"

func TestBuildKaryTreeRootAtZero(t *testing.T) {
	const size, radix = 7, 2
	trees := make([]Tree, size)
	for pe := 0; pe < size; pe++ {
		trees[pe] = BuildKaryTree(0, 1, size, 0, radix, pe)
	}

	if trees[0].Parent != -1 {
		t.Fatalf("root (pe 0) expected no parent, got %d", trees[0].Parent)
	}
	want := map[int][]int{
		0: {1, 2},
		1: {3, 4},
		2: {5, 6},
	}
	for pe, children := range want {
		if !intSliceEq(trees[pe].Children, children) {
			t.Errorf("pe %d: children = %v, want %v", pe, trees[pe].Children, children)
		}
	}
	for pe := 3; pe < size; pe++ {
		if len(trees[pe].Children) != 0 {
			t.Errorf("pe %d expected to be a leaf, got children %v", pe, trees[pe].Children)
		}
	}

	// Every non-root PE's parent must list it as a child, and the tree
	// must be connected back to the root for every PE.
	for pe := 1; pe < size; pe++ {
		p := trees[pe].Parent
		if !intSliceContains(trees[p].Children, pe) {
			t.Errorf("pe %d's parent %d does not list it as a child", pe, p)
		}
	}
}

func TestBuildKaryTreeRotatesOnNonZeroRoot(t *testing.T) {
	const size, radix = 5, 2
	root := 2
	for pe := 0; pe < size; pe++ {
		tr := BuildKaryTree(0, 1, size, root, radix, pe)
		if pe == root {
			if tr.Parent != -1 {
				t.Fatalf("root pe %d expected no parent, got %d", pe, tr.Parent)
			}
		} else if tr.Parent == -1 {
			t.Errorf("non-root pe %d unexpectedly has no parent", pe)
		}
	}
}

func TestBuildKaryTreeStrideSkipsPEs(t *testing.T) {
	// Active set {1, 3, 5, 7} (start=1, stride=2, size=4), root=1.
	tr := BuildKaryTree(1, 2, 4, 1, 2, 1)
	if tr.Parent != -1 {
		t.Fatalf("root expected no parent, got %d", tr.Parent)
	}
	if !intSliceEq(tr.Children, []int{3, 5}) {
		t.Fatalf("root children = %v, want [3 5]", tr.Children)
	}
	leaf := BuildKaryTree(1, 2, 4, 1, 2, 7)
	if leaf.Parent != 3 {
		t.Fatalf("pe 7 parent = %d, want 3", leaf.Parent)
	}
}

func intSliceEq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intSliceContains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

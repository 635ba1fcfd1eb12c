package shmem

import "testing"

func TestBuildSegments(t *testing.T) {
	cases := []struct {
		n, max int
		want   []int
	}{
		{10, 0, []int{10}},
		{10, 100, []int{10}},
		{10, 4, []int{4, 4, 2}},
		{8, 4, []int{4, 4}},
		{0, 4, []int{0}},
	}
	for _, c := range cases {
		got := buildSegments(c.n, c.max)
		if len(got) != len(c.want) {
			t.Fatalf("buildSegments(%d,%d) = %v, want %v", c.n, c.max, got, c.want)
		}
		sum := 0
		for i, seg := range got {
			if seg != c.want[i] {
				t.Errorf("buildSegments(%d,%d)[%d] = %d, want %d", c.n, c.max, i, seg, c.want[i])
			}
			sum += seg
		}
		if c.n > 0 && sum != c.n {
			t.Errorf("buildSegments(%d,%d) sums to %d, want %d", c.n, c.max, sum, c.n)
		}
	}
}

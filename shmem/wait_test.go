package shmem

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitUntilComparators(t *testing.T) {
	cases := []struct {
		cmp  Cmp
		val  int64
		cmp2 int64
		want bool
	}{
		{CmpEQ, 5, 5, true},
		{CmpEQ, 5, 6, false},
		{CmpNE, 5, 6, true},
		{CmpLT, 4, 5, true},
		{CmpLE, 5, 5, true},
		{CmpGT, 6, 5, true},
		{CmpGE, 5, 5, true},
	}
	for _, c := range cases {
		if got := c.cmp.satisfied(c.val, c.cmp2); got != c.want {
			t.Errorf("cmp=%v val=%d cmp2=%d: got %v want %v", c.cmp, c.val, c.cmp2, got, c.want)
		}
	}
}

func TestWaitUnblocksOnRemoteSet(t *testing.T) {
	var word int64
	done := make(chan struct{})
	go func() {
		Wait(&word)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before word was set")
	case <-time.After(20 * time.Millisecond):
	}

	atomic.StoreInt64(&word, 1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after word was set")
	}
}

func TestWaitUntilThreshold(t *testing.T) {
	var word int64
	done := make(chan struct{})
	go func() {
		WaitUntil(&word, CmpGE, 3)
		close(done)
	}()

	atomic.StoreInt64(&word, 2)
	select {
	case <-done:
		t.Fatal("WaitUntil returned before threshold reached")
	case <-time.After(20 * time.Millisecond):
	}

	atomic.StoreInt64(&word, 3)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitUntil did not return after threshold reached")
	}
}

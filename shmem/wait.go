package shmem

import (
	"runtime"
	"sync/atomic"
)

// Cmp selects the comparator WaitUntil spins on (spec.md §4.5).
type Cmp uint8

const (
	CmpEQ Cmp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

func (c Cmp) satisfied(val, cmp int64) bool {
	switch c {
	case CmpEQ:
		return val == cmp
	case CmpNE:
		return val != cmp
	case CmpLT:
		return val < cmp
	case CmpLE:
		return val <= cmp
	case CmpGT:
		return val > cmp
	case CmpGE:
		return val >= cmp
	default:
		return false
	}
}

// WaitUntil spins on a local symmetric long until *addr satisfies cmp
// against value, yielding the processor between polls (spec.md §4.5). It
// never blocks in the scheduler's sense and has no timeout: the condition
// is assumed to become true through some other PE's remote update.
func WaitUntil(addr *int64, cmp Cmp, value int64) {
	for !cmp.satisfied(atomic.LoadInt64(addr), value) {
		runtime.Gosched()
	}
}

// Wait is the common case of WaitUntil(addr, CmpNE, 0): block until addr
// is set to something other than zero, the idiom spec.md §4.5 calls out
// for "signal arrival" polling.
func Wait(addr *int64) {
	WaitUntil(addr, CmpNE, 0)
}

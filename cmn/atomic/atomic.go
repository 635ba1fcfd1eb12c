// Package atomic provides the small monotonic counter wrapper the core uses
// for pending_put_counter/pending_get_counter, mirroring aistore's
// 3rdparty/atomic convention of a first-party shim over sync/atomic rather
// than a third-party atomics library.
package atomic

import "sync/atomic"

// Uint64 is a monotonically non-decreasing 64-bit counter.
type Uint64 struct{ v uint64 }

func (c *Uint64) Load() uint64            { return atomic.LoadUint64(&c.v) }
func (c *Uint64) Add(delta uint64) uint64 { return atomic.AddUint64(&c.v, delta) }
func (c *Uint64) Store(val uint64)        { atomic.StoreUint64(&c.v, val) }

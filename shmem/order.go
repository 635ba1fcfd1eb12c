package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/transport"
)

// Fence orders this PE's prior puts and atomics to pe ahead of any
// operation issued after Fence returns, without draining operations bound
// for other peers (spec.md §4.4). When cfg.FenceIsQuiet is set, or the
// transport doesn't implement the per-target Fencer optimization, Fence
// falls back to a full Quiet.
func (rt *Runtime) Fence(ctx context.Context, pe int) error {
	if rt.cfg.FenceIsQuiet {
		return rt.Quiet(ctx)
	}
	if f, ok := rt.transport.(transport.Fencer); ok {
		return f.Fence(ctx, pe)
	}
	return rt.Quiet(ctx)
}

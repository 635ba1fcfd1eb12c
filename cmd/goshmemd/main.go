// Command goshmemd is a single-process demo/integration harness: it runs
// N PEs as goroutines over the loopback transport, the static process
// group, and a region table built straight from the fabric's own byte
// slices, driving every collective end-to-end without a real Portals
// fabric (spec.md §5, §9 "demo harness").
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/sandialabs/goshmem/cmn"
	"github.com/sandialabs/goshmem/cmn/nlog"
	"github.com/sandialabs/goshmem/dtype"
	"github.com/sandialabs/goshmem/metrics"
	"github.com/sandialabs/goshmem/pgroup/static"
	"github.com/sandialabs/goshmem/region"
	"github.com/sandialabs/goshmem/shmem"
	"github.com/sandialabs/goshmem/transport/loopback"
)

// Heap layout shared by every PE: byte offsets into the symmetric heap
// region, identical across PEs by construction, so "my own address at
// offset X" always names "the same location" on any peer.
const (
	offBarrierSync   = 0
	offBroadcastSync = 16
	offBroadcastDst  = 32
	offBroadcastSrc  = 64
	offReduceSync    = 96
	offReduceWrk     = 128
	offReduceDst     = 160
	offReduceSrc     = 192
	offCollectSync   = 224
	offCollectDst    = 256
	offCollectSrc    = 512
	offFcollectSync  = 768
	offFcollectDst   = 800
	offFcollectSrc   = 1024
	heapSize         = 2048
	dataSize         = 256
)

func addrOf(b []byte) uintptr { return uintptr(unsafe.Pointer(unsafe.SliceData(b))) }

func main() {
	n := flag.Int("n", 4, "number of PEs")
	flag.Parse()

	metrics.Register(nil)

	cfg := cmn.DefaultConfig()
	cfg.DiagCapacity = 64

	job := static.NewJob(*n)
	fabric := loopback.NewFabric(*n, dataSize, heapSize)

	g, ctx := errgroup.WithContext(context.Background())
	for pe := 0; pe < *n; pe++ {
		pe := pe
		g.Go(func() error { return runPE(ctx, fabric, job, pe, *n, cfg) })
	}
	if err := g.Wait(); err != nil {
		nlog.Fatalln("goshmemd: run failed:", err)
	}
	nlog.Infoln("goshmemd: all PEs completed successfully")
}

func runPE(ctx context.Context, fabric *loopback.Fabric, job *static.Job, pe, n int, cfg cmn.Config) error {
	data, heap := fabric.Regions(pe)
	table, err := region.NewTable(
		region.Descriptor{ID: region.Data, Base: addrOf(data), Length: uintptr(len(data))},
		region.Descriptor{ID: region.Heap, Base: addrOf(heap), Length: uintptr(len(heap))},
	)
	if err != nil {
		return fmt.Errorf("pe %d: build region table: %w", pe, err)
	}

	rt, err := shmem.Init(ctx, job.Member(pe), fabric.Endpoint(pe), table, cfg)
	if err != nil {
		return fmt.Errorf("pe %d: init: %w", pe, err)
	}
	defer rt.Finalize()

	heapBase := addrOf(heap)
	at := func(off uintptr) uintptr { return heapBase + off }
	local := func(off uintptr, n int) []byte { return heap[off : off+uintptr(n)] }

	if err := rt.BarrierAll(ctx, at(offBarrierSync)); err != nil {
		return fmt.Errorf("pe %d: barrier: %w", pe, err)
	}

	binary.LittleEndian.PutUint32(local(offBroadcastSrc, 4), uint32(100+pe))
	// complete is a collective argument: every PE must pass the same
	// value, since true makes every non-root PE ack back up the tree and
	// the root wait on those acks before returning.
	if err := rt.Broadcast32(ctx, at(offBroadcastDst), at(offBroadcastSrc), 1, 0, 0, 1, n, at(offBroadcastSync), true); err != nil {
		return fmt.Errorf("pe %d: broadcast: %w", pe, err)
	}
	if got := binary.LittleEndian.Uint32(local(offBroadcastDst, 4)); pe != 0 && got != 100 {
		return fmt.Errorf("pe %d: broadcast mismatch: got %d", pe, got)
	}

	binary.LittleEndian.PutUint32(local(offReduceSrc, 4), uint32(pe+1))
	if err := rt.SumToAll32(ctx, at(offReduceDst), at(offReduceSrc), 1, 0, 1, n, at(offReduceSync), at(offReduceWrk)); err != nil {
		return fmt.Errorf("pe %d: sum_to_all: %w", pe, err)
	}
	want := uint32(n * (n + 1) / 2)
	if got := binary.LittleEndian.Uint32(local(offReduceDst, 4)); got != want {
		return fmt.Errorf("pe %d: sum_to_all mismatch: got %d want %d", pe, got, want)
	}

	binary.LittleEndian.PutUint32(local(offCollectSrc, 4), uint32(pe))
	if _, err := rt.Collect32(ctx, at(offCollectDst), at(offCollectSrc), 1, 0, 1, n, at(offCollectSync)); err != nil {
		return fmt.Errorf("pe %d: collect: %w", pe, err)
	}

	binary.LittleEndian.PutUint32(local(offFcollectSrc, 4), uint32(pe*10))
	if err := rt.Fcollect32(ctx, at(offFcollectDst), at(offFcollectSrc), 1, 0, 1, n, at(offFcollectSync)); err != nil {
		return fmt.Errorf("pe %d: fcollect: %w", pe, err)
	}
	for i := 0; i < n; i++ {
		if got := binary.LittleEndian.Uint32(local(offFcollectDst+uintptr(i*4), 4)); got != uint32(i*10) {
			return fmt.Errorf("pe %d: fcollect mismatch at %d: got %d", pe, i, got)
		}
	}

	if err := rt.Quiet(ctx); err != nil {
		return fmt.Errorf("pe %d: quiet: %w", pe, err)
	}
	nlog.Infof("pe %d: collectives OK (npes=%d, dtype=%s)", pe, n, dtype.Int32)
	return nil
}

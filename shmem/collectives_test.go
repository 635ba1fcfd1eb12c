package shmem

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"
	"unsafe"

	"github.com/sandialabs/goshmem/cmn"
	"github.com/sandialabs/goshmem/pgroup/static"
	"github.com/sandialabs/goshmem/region"
	"github.com/sandialabs/goshmem/transport/loopback"
	"golang.org/x/sync/errgroup"
)

func addrOfTest(b []byte) uintptr { return uintptr(unsafe.Pointer(unsafe.SliceData(b))) }

// testingT is the part of testing.TB that newTestRuntimes uses, so that
// both *testing.T and Ginkgo's GinkgoT() can be passed in.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// newTestRuntimes wires n PEs over the loopback transport and static
// process group, mirroring cmd/goshmemd, for exercising collectives
// without a real fabric.
func newTestRuntimes(t testingT, n int, cfg cmn.Config) ([]*Runtime, [][]byte, func()) {
	t.Helper()
	job := static.NewJob(n)
	fabric := loopback.NewFabric(n, 256, 4096)

	rts := make([]*Runtime, n)
	heaps := make([][]byte, n)
	g, ctx := errgroup.WithContext(context.Background())
	for pe := 0; pe < n; pe++ {
		pe := pe
		g.Go(func() error {
			data, heap := fabric.Regions(pe)
			table, err := region.NewTable(
				region.Descriptor{ID: region.Data, Base: addrOfTest(data), Length: uintptr(len(data))},
				region.Descriptor{ID: region.Heap, Base: addrOfTest(heap), Length: uintptr(len(heap))},
			)
			if err != nil {
				return err
			}
			rt, err := Init(ctx, job.Member(pe), fabric.Endpoint(pe), table, cfg)
			if err != nil {
				return err
			}
			rts[pe] = rt
			heaps[pe] = heap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return rts, heaps, func() {
		for _, rt := range rts {
			rt.Finalize()
		}
	}
}

func TestBarrierAllFlatAndTree(t *testing.T) {
	for _, n := range []int{4, 10} {
		cfg := cmn.DefaultConfig()
		rts, heaps, cleanup := newTestRuntimes(t, n, cfg)
		defer cleanup()

		var g errgroup.Group
		for pe := 0; pe < n; pe++ {
			pe := pe
			g.Go(func() error {
				return rts[pe].BarrierAll(context.Background(), addrOfTest(heaps[pe]))
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("n=%d: barrier: %v", n, err)
		}
	}
}

func TestBroadcastAndReduce(t *testing.T) {
	const n = 5
	cfg := cmn.DefaultConfig()
	rts, heaps, cleanup := newTestRuntimes(t, n, cfg)
	defer cleanup()

	var g errgroup.Group
	for pe := 0; pe < n; pe++ {
		pe := pe
		g.Go(func() error {
			ctx := context.Background()
			heap := heaps[pe]
			base := addrOfTest(heap)
			syncAddr := base
			dstAddr := base + 64
			srcAddr := base + 128

			if pe == 0 {
				binary.LittleEndian.PutUint32(heap[128:132], 42)
			}
			// complete is collective: every PE must agree, since true
			// makes non-root PEs ack back and the root wait on them.
			if err := rts[pe].Broadcast32(ctx, dstAddr, srcAddr, 1, 0, 0, 1, n, syncAddr, true); err != nil {
				return err
			}
			if pe != 0 {
				if got := binary.LittleEndian.Uint32(heap[64:68]); got != 42 {
					t.Errorf("pe %d: broadcast got %d, want 42", pe, got)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	var g2 errgroup.Group
	for pe := 0; pe < n; pe++ {
		pe := pe
		g2.Go(func() error {
			ctx := context.Background()
			heap := heaps[pe]
			base := addrOfTest(heap)
			syncAddr := base + 256
			wrkAddr := base + 320
			dstAddr := base + 384
			srcAddr := base + 448

			binary.LittleEndian.PutUint32(heap[448:452], uint32(pe+1))
			if err := rts[pe].SumToAll32(ctx, dstAddr, srcAddr, 1, 0, 1, n, syncAddr, wrkAddr); err != nil {
				return err
			}
			want := uint32(n * (n + 1) / 2)
			if got := binary.LittleEndian.Uint32(heap[384:388]); got != want {
				t.Errorf("pe %d: sum_to_all got %d, want %d", pe, got, want)
			}
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		t.Fatalf("sum_to_all: %v", err)
	}
}

func TestFcollect(t *testing.T) {
	const n = 4
	cfg := cmn.DefaultConfig()
	rts, heaps, cleanup := newTestRuntimes(t, n, cfg)
	defer cleanup()

	var g errgroup.Group
	for pe := 0; pe < n; pe++ {
		pe := pe
		g.Go(func() error {
			ctx := context.Background()
			heap := heaps[pe]
			base := addrOfTest(heap)
			syncAddr := base
			dstAddr := base + 64
			srcAddr := base + 256

			binary.LittleEndian.PutUint32(heap[256:260], uint32(pe*10))
			if err := rts[pe].Fcollect32(ctx, dstAddr, srcAddr, 1, 0, 1, n, syncAddr); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if got := binary.LittleEndian.Uint32(heap[64+i*4 : 68+i*4]); got != uint32(i*10) {
					return fmt.Errorf("pe %d: fcollect mismatch at %d: got %d", pe, i, got)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("fcollect: %v", err)
	}
}

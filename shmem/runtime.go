// Package shmem is the core of the PGAS/SHMEM communication runtime: the
// address resolver, completion tracker, transfer engine, ordering and wait
// primitives, tree builder, and collectives engine described in spec.md
// §4, wired together behind a per-process Runtime value (spec.md §9
// "Process-wide state").
package shmem

import (
	"context"
	"fmt"

	"github.com/sandialabs/goshmem/cmn"
	"github.com/sandialabs/goshmem/cmn/debug"
	"github.com/sandialabs/goshmem/cmn/nlog"
	"github.com/sandialabs/goshmem/diag"
	"github.com/sandialabs/goshmem/metrics"
	"github.com/sandialabs/goshmem/pgroup"
	"github.com/sandialabs/goshmem/region"
	"github.com/sandialabs/goshmem/transport"
)

// Runtime is the per-PE singleton: it owns the transport bindings, region
// table, full-tree cache, and the two init/finalize idempotence flags
// (spec.md §9). Every operation in this package takes a *Runtime receiver
// instead of reaching through package globals.
type Runtime struct {
	cfg       cmn.Config
	pgroup    pgroup.Group
	transport transport.Transport
	regions   *region.Table

	completion *completionTracker
	journal    *diag.Journal // nil unless cfg.DiagCapacity > 0

	myPE   int
	numPEs int

	fullTree Tree // cached full-group tree rooted at PE 0

	initialized bool
	finalized   bool

	// cleanup is the LIFO stack of release closures pushed as Init
	// acquires resources, unwound in reverse on any failure — the fixed
	// equivalent of the original's inconsistently-flipped
	// PtlHandleIsEqual(..., INVALID) cleanup label (spec.md §7.4).
	cleanup []func() error
}

// Init binds the runtime to a process group, a transport, and a region
// table, and precomputes the full-group tree. It is the only place that
// allocates process-wide resources; Finalize is the only place that
// releases them. Each call builds and returns a new, independent Runtime;
// Init does not detect an earlier call. The initialized/finalized flags
// are per Runtime and make Finalize idempotent.
func Init(ctx context.Context, pg pgroup.Group, tr transport.Transport, regions *region.Table, cfg cmn.Config) (rt *Runtime, err error) {
	rt = &Runtime{
		cfg:       cfg,
		pgroup:    pg,
		transport: tr,
		regions:   regions,
		myPE:      pg.MyPE(),
		numPEs:    pg.NumPEs(),
	}

	defer func() {
		if err != nil {
			rt.unwind()
		}
	}()

	limits := tr.Limits()
	if limits.MaxPutSize <= 0 || limits.MaxAtomicSize <= 0 {
		err = fmt.Errorf("shmem: init: transport reported non-positive segmentation limits: %+v", limits)
		cmn.Abort(rt.myPE, cmn.ErrInit, err)
		return nil, err
	}

	var putEQ transport.EventQueue
	if cfg.EventCompletion {
		putEQ = tr.PutEvents()
		if putEQ == nil {
			err = fmt.Errorf("shmem: init: event-completion requested but transport has no put event queue")
			cmn.Abort(rt.myPE, cmn.ErrInit, err)
			return nil, err
		}
	}
	rt.completion = newCompletionTracker(tr.PutCounter(), tr.GetCounter(), putEQ)
	rt.push(func() error { rt.completion = nil; return nil })

	debug.Assert(cfg.TreeRadix >= 2, "tree radix must be >= 2, got", cfg.TreeRadix)
	rt.fullTree = BuildKaryTree(0, 1, rt.numPEs, 0, cfg.TreeRadix, rt.myPE)
	metrics.TreeRadix.Set(float64(cfg.TreeRadix))
	metrics.TreeCrossover.Set(float64(cfg.TreeCrossover))

	if cfg.DiagCapacity > 0 {
		j, jerr := diag.Open(cfg.DiagCapacity)
		if jerr != nil {
			err = fmt.Errorf("shmem: init: open diagnostic journal: %w", jerr)
			cmn.Abort(rt.myPE, cmn.ErrInit, err)
			return nil, err
		}
		rt.journal = j
		rt.push(func() error { return rt.journal.Close() })
	}

	if err = pg.Barrier(ctx); err != nil {
		cmn.Abort(rt.myPE, cmn.ErrInit, fmt.Errorf("shmem: init barrier: %w", err))
		return nil, err
	}

	rt.initialized = true
	return rt, nil
}

func (rt *Runtime) push(release func() error) { rt.cleanup = append(rt.cleanup, release) }

// unwind releases resources acquired so far, most-recently-acquired first
// (spec.md §7.4, §9 "Init-path cleanup").
func (rt *Runtime) unwind() {
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		if err := rt.cleanup[i](); err != nil {
			nlog.Errorln("shmem: init cleanup step failed:", err)
		}
	}
	rt.cleanup = nil
}

// Finalize releases the runtime's resources. Idempotent: a second call is
// a no-op.
func (rt *Runtime) Finalize() error {
	if rt.finalized || !rt.initialized {
		return nil
	}
	rt.unwind()
	rt.finalized = true
	return nil
}

// MyPE returns the calling PE's rank.
func (rt *Runtime) MyPE() int { return rt.myPE }

// NPEs returns the job's fixed PE count.
func (rt *Runtime) NPEs() int { return rt.numPEs }

// PEAccessible reports whether pe names a valid peer. This is the
// corrected predicate spec.md §9's Open Question calls for — 0 <= pe <
// NumPEs() — not the original's buggy `pe > 0 && pe < n_pes`, which
// excludes PE 0.
func (rt *Runtime) PEAccessible(pe int) bool {
	return pe >= 0 && pe < rt.numPEs
}

// AddrAccessible is best-effort true, per spec.md §9's resolution of the
// third Open Question: 1 whenever PEAccessible(pe) holds.
func (rt *Runtime) AddrAccessible(_ uintptr, pe int) bool {
	return rt.PEAccessible(pe)
}

// Ptr returns the local-process address corresponding to a symmetric
// pointer on a remote PE, or (0, false) when pe is not on this node. The
// loopback transport and single-process demo are always "on this node";
// a real multi-node deployment's transport would report otherwise via a
// locality hook, which is out of this core's scope.
func (rt *Runtime) Ptr(symAddr uintptr, pe int) (uintptr, bool) {
	if !rt.PEAccessible(pe) {
		return 0, false
	}
	id, off, err := rt.regions.Resolve(symAddr)
	if err != nil {
		return 0, false
	}
	return rt.regions.Translate(id, off), true
}

// resolve classifies a local symmetric pointer, aborting the PE on any
// usage error (spec.md §4.1, §7 kind 1).
func (rt *Runtime) resolve(ptr uintptr) (region.ID, uintptr) {
	id, off, err := rt.regions.Resolve(ptr)
	if err != nil {
		cmn.Abort(rt.myPE, cmn.ErrUsage, err)
	}
	return id, off
}

// abortTransport raises the fatal transport-error kind (spec.md §7 kind
// 2) for any non-OK transport return.
func (rt *Runtime) abortTransport(err error) {
	cmn.Abort(rt.myPE, cmn.ErrTransport, err)
}

// abortRemote raises the fatal remote-completion kind (spec.md §7 kind 3)
// for any non-OK event/counter failure.
func (rt *Runtime) abortRemote(err error) {
	cmn.Abort(rt.myPE, cmn.ErrRemoteCompletion, err)
}

func (rt *Runtime) assertUsage(cond bool, format string, args ...any) {
	if !cond {
		cmn.Abort(rt.myPE, cmn.ErrUsage, fmt.Errorf(format, args...))
	}
}

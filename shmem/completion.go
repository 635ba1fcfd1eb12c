package shmem

import (
	"context"

	"github.com/sandialabs/goshmem/cmn/atomic"
	"github.com/sandialabs/goshmem/metrics"
	"github.com/sandialabs/goshmem/transport"
)

// completionTracker is the local bookkeeping half of spec.md §4.2's
// completion discipline: it counts operations issued (pending_put_counter
// / pending_get_counter), which Quiet, putWait and getWait wait on via the
// transport's counting events (put_ct/get_ct). Only Quiet uses the put
// event queue when event-completion is configured; putWait and getWait
// always wait on the counters and dequeue no events.
type completionTracker struct {
	pendingPut atomic.Uint64 // cumulative puts/atomics issued
	pendingGet atomic.Uint64 // cumulative gets/fetch-atomics/swaps issued
	drainedPut uint64        // cumulative puts observed complete via Wait
	drainedGet uint64        // cumulative gets observed complete via Wait

	putCtr transport.Counter
	getCtr transport.Counter
	putEQ  transport.EventQueue // non-nil only under event completion
}

func newCompletionTracker(putCtr, getCtr transport.Counter, putEQ transport.EventQueue) *completionTracker {
	return &completionTracker{putCtr: putCtr, getCtr: getCtr, putEQ: putEQ}
}

func (ct *completionTracker) notePut(n int) {
	ct.pendingPut.Add(uint64(n))
	metrics.PendingPuts.Add(float64(n))
}
func (ct *completionTracker) noteGet(n int) {
	ct.pendingGet.Add(uint64(n))
	metrics.PendingGets.Add(float64(n))
}

// markPutsDrained records that every put issued up through the cumulative
// count "through" has now been observed complete, updating the gauge by
// however many newly drained since the last Wait.
func (ct *completionTracker) markPutsDrained(through uint64) {
	if through > ct.drainedPut {
		metrics.PendingPuts.Sub(float64(through - ct.drainedPut))
		ct.drainedPut = through
	}
}

func (ct *completionTracker) markGetsDrained(through uint64) {
	if through > ct.drainedGet {
		metrics.PendingGets.Sub(float64(through - ct.drainedGet))
		ct.drainedGet = through
	}
}

// quiet waits for every put and get issued so far by this PE to complete,
// draining both counters (spec.md §4.4 "quiet"). Under event-completion it
// drains the put event queue instead of the put counter, dequeuing exactly
// as many events as puts were issued and treating any non-OK event as a
// remote-completion abort.
func (rt *Runtime) Quiet(ctx context.Context) error {
	ct := rt.completion
	pending := ct.pendingPut.Load()
	if ct.putEQ != nil {
		for i := uint64(0); i < pending; i++ {
			ev, err := ct.putEQ.Wait(ctx)
			if err != nil {
				return err
			}
			if !ev.OK {
				rt.abortRemote(&transport.EventFailure{Code: ev.Code})
			}
		}
	} else if err := ct.putCtr.Wait(ctx, pending); err != nil {
		return err
	}
	ct.markPutsDrained(pending)

	pendingGet := ct.pendingGet.Load()
	if err := ct.getCtr.Wait(ctx, pendingGet); err != nil {
		return err
	}
	ct.markGetsDrained(pendingGet)
	return nil
}

// putWait drains only the put side — used internally wherever an
// operation's own completion must be observed before the caller's buffer
// is reused, without paying for a full Quiet.
func (rt *Runtime) putWait(ctx context.Context) error {
	ct := rt.completion
	pending := ct.pendingPut.Load()
	if err := ct.putCtr.Wait(ctx, pending); err != nil {
		return err
	}
	ct.markPutsDrained(pending)
	return nil
}

// getWait drains only the get side (spec.md §4.2 "get_wait").
func (rt *Runtime) getWait(ctx context.Context) error {
	ct := rt.completion
	pending := ct.pendingGet.Load()
	if err := ct.getCtr.Wait(ctx, pending); err != nil {
		return err
	}
	ct.markGetsDrained(pending)
	return nil
}

// Package static is a reference pgroup.Group for single-process jobs: a
// fixed-size job where every PE is a goroutine and Barrier is a simple
// channel-based rendezvous, good enough for tests and the demo harness.
package static

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandialabs/goshmem/pgroup"
)

// Job is shared by every member's Group handle.
type Job struct {
	size    int
	arrive  chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewJob creates a job of the given size.
func NewJob(size int) *Job {
	if size <= 0 {
		panic("pgroup/static: size must be positive")
	}
	return &Job{
		size:    size,
		arrive:  make(chan struct{}, size),
		release: make(chan struct{}),
	}
}

// Member returns the pgroup.Group handle for PE rank `pe` in the job.
func (j *Job) Member(pe int) pgroup.Group {
	if pe < 0 || pe >= j.size {
		panic(fmt.Sprintf("pgroup/static: pe %d out of range [0,%d)", pe, j.size))
	}
	return &member{job: j, pe: pe}
}

type member struct {
	job *Job
	pe  int
}

func (m *member) MyPE() int   { return m.pe }
func (m *member) NumPEs() int { return m.job.size }

// Barrier is a simple fan-in/fan-out rendezvous over channels: every
// member posts an arrival, the last arrival closes the release channel
// once, and everyone reads past the close. Single-use, matching its one
// call site in spec.md §6: the init-time rendezvous before RMA is up.
func (m *member) Barrier(ctx context.Context) error {
	j := m.job
	select {
	case j.arrive <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if len(j.arrive) == j.size {
		// More than one member can observe the full channel; only the
		// first of them closes release.
		j.once.Do(func() { close(j.release) })
	}
	select {
	case <-j.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

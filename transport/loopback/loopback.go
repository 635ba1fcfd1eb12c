// Package loopback is a reference Transport (spec.md §6) implemented
// entirely in-process: N "PEs" are goroutines sharing one address space,
// their symmetric regions are plain byte slices, and counting events are
// condition-variable-backed counters. It exists to drive every
// transfer-engine and collectives operation in tests and the demo harness
// without a real Portals fabric.
package loopback

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/OneOfOne/xxhash"
	lz4 "github.com/pierrec/lz4/v3"

	"github.com/sandialabs/goshmem/dtype"
	"github.com/sandialabs/goshmem/region"
	"github.com/sandialabs/goshmem/transport"
)

// compressFloor is the payload size at or above which Fabric's optional
// compression round-trip kicks in; below it the overhead isn't worth it.
const compressFloor = 256

type member struct {
	mu   sync.Mutex
	regs [2][]byte // indexed by region.ID
}

// Fabric is the shared "wire" binding every PE's symmetric regions
// together in one process.
type Fabric struct {
	limits   transport.Limits
	members  []*member
	compress bool
}

// Option configures a Fabric at construction time.
type Option func(*Fabric)

// WithLimits overrides the default segmentation thresholds.
func WithLimits(l transport.Limits) Option { return func(f *Fabric) { f.limits = l } }

// WithCompression enables the optional lz4 round-trip on large payloads,
// mirroring the teacher's bundle.Extra.Compression data-mover knob.
func WithCompression(enabled bool) Option { return func(f *Fabric) { f.compress = enabled } }

// NewFabric allocates n members, each with its own dataLen-byte data
// segment and heapLen-byte symmetric heap.
func NewFabric(n, dataLen, heapLen int, opts ...Option) *Fabric {
	f := &Fabric{
		limits:  transport.Limits{MaxOrderedSize: 1 << 20, MaxPutSize: 4096, MaxAtomicSize: 512},
		members: make([]*member, n),
	}
	for i := range f.members {
		m := &member{}
		m.regs[region.Data] = make([]byte, dataLen)
		m.regs[region.Heap] = make([]byte, heapLen)
		f.members[i] = m
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// NumPEs reports the fabric's member count.
func (f *Fabric) NumPEs() int { return len(f.members) }

// Regions returns pe's raw data and heap byte slices, for building a
// region.Table to pair with the Endpoint bound to the same pe.
func (f *Fabric) Regions(pe int) (data, heap []byte) {
	m := f.members[pe]
	return m.regs[region.Data], m.regs[region.Heap]
}

// Digest returns an xxhash checksum of pe's region id, a cheap way for
// tests to compare whole symmetric regions across PEs (e.g. after
// fcollect/collect) without diffing large byte slices directly.
func (f *Fabric) Digest(pe int, id region.ID) uint64 {
	m := f.members[pe]
	m.mu.Lock()
	defer m.mu.Unlock()
	return xxhash.Checksum64(m.regs[id])
}

// Endpoint returns a Transport bound to pe.
func (f *Fabric) Endpoint(pe int) transport.Transport {
	return &endpoint{
		fabric: f,
		pe:     pe,
		putCtr: newCounter(),
		getCtr: newCounter(),
	}
}

type endpoint struct {
	fabric *Fabric
	pe     int
	putCtr *counter
	getCtr *counter
	evq    *eventQueue
}

// EnableEvents turns on the optional put event queue (spec.md §4.2).
func (e *endpoint) EnableEvents() { e.evq = newEventQueue() }

func (e *endpoint) Limits() transport.Limits { return e.fabric.limits }

func (e *endpoint) target(t transport.Target) (*member, []byte, error) {
	if t.PE < 0 || t.PE >= len(e.fabric.members) {
		return nil, nil, fmt.Errorf("loopback: pe %d out of range", t.PE)
	}
	return e.fabric.members[t.PE], nil, nil
}

func (e *endpoint) slice(m *member, t transport.Target, n int) ([]byte, error) {
	buf := m.regs[t.Region]
	if int(t.Offset)+n > len(buf) || int(t.Offset) < 0 {
		return nil, fmt.Errorf("loopback: access out of bounds pe=%d region=%s off=%d len=%d cap=%d",
			t.PE, t.Region, t.Offset, n, len(buf))
	}
	return buf[t.Offset : int(t.Offset)+n], nil
}

func (e *endpoint) Put(_ context.Context, t transport.Target, src []byte) error {
	m, _, err := e.target(t)
	if err != nil {
		return err
	}
	payload, err := roundtripCompress(e.fabric.compress, src)
	if err != nil {
		return err
	}
	m.mu.Lock()
	dst, err := e.slice(m, t, len(payload))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	copy(dst, payload)
	m.mu.Unlock()
	e.putCtr.add(1)
	if e.evq != nil {
		e.evq.push(transport.Event{OK: true})
	}
	return nil
}

func (e *endpoint) Get(_ context.Context, dst []byte, t transport.Target) error {
	m, _, err := e.target(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	src, err := e.slice(m, t, len(dst))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	copy(dst, src)
	m.mu.Unlock()
	e.getCtr.add(1)
	return nil
}

func (e *endpoint) Atomic(_ context.Context, t transport.Target, src []byte, dt dtype.Datatype, op dtype.Op) error {
	m, _, err := e.target(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	buf, err := e.slice(m, t, len(src))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	sz := dt.Size()
	for i := 0; sz > 0 && i+sz <= len(src); i += sz {
		copy(buf[i:i+sz], combine(dt, op, buf[i:i+sz], src[i:i+sz]))
	}
	m.mu.Unlock()
	e.putCtr.add(1)
	if e.evq != nil {
		e.evq.push(transport.Event{OK: true})
	}
	return nil
}

func (e *endpoint) FetchAtomic(_ context.Context, dst []byte, t transport.Target, src []byte, dt dtype.Datatype, op dtype.Op) error {
	m, _, err := e.target(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	buf, err := e.slice(m, t, len(src))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	old := append([]byte(nil), buf...)
	updated := combine(dt, op, buf, src)
	copy(buf, updated)
	m.mu.Unlock()
	copy(dst, old)
	e.getCtr.add(1)
	return nil
}

func (e *endpoint) Swap(_ context.Context, dst []byte, t transport.Target, src []byte, _ dtype.Datatype, kind transport.SwapKind, operand []byte) error {
	m, _, err := e.target(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	buf, err := e.slice(m, t, len(src))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	old := append([]byte(nil), buf...)
	switch kind {
	case transport.SwapUnconditional:
		copy(buf, src)
	case transport.SwapCompare:
		if bytes.Equal(old, operand) {
			copy(buf, src)
		}
	case transport.SwapMasked:
		masked := make([]byte, len(src))
		for i := range masked {
			masked[i] = (old[i] &^ operand[i]) | (src[i] & operand[i])
		}
		copy(buf, masked)
	default:
		m.mu.Unlock()
		return fmt.Errorf("loopback: unknown swap kind %d", kind)
	}
	m.mu.Unlock()
	copy(dst, old)
	e.getCtr.add(1)
	return nil
}

func (e *endpoint) PutCounter() transport.Counter { return e.putCtr }
func (e *endpoint) GetCounter() transport.Counter { return e.getCtr }
func (e *endpoint) PutEvents() transport.EventQueue {
	if e.evq == nil {
		return nil
	}
	return e.evq
}

// Fence is a no-op: every Put/Atomic/Swap above already serializes on the
// target member's mutex in call order, so per-target ordering already
// holds without an explicit barrier. Transports with real weak ordering
// would do real work here.
func (e *endpoint) Fence(context.Context, int) error { return nil }

var _ transport.Fencer = (*endpoint)(nil)

func roundtripCompress(enabled bool, src []byte) ([]byte, error) {
	if !enabled || len(src) < compressFloor {
		return src, nil
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("loopback: lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("loopback: lz4 compress: %w", err)
	}
	out := make([]byte, len(src))
	if _, err := io.ReadFull(lz4.NewReader(&buf), out); err != nil {
		return nil, fmt.Errorf("loopback: lz4 decompress: %w", err)
	}
	return out, nil
}

// combine applies op (of datatype dt) to cur using delta, returning the
// updated bytes — the loopback stand-in for the remote NIC's atomic
// engine.
func combine(dt dtype.Datatype, op dtype.Op, cur, delta []byte) []byte {
	out := make([]byte, len(cur))
	switch dt {
	case dtype.Int16:
		a, b := int64(int16(binary.LittleEndian.Uint16(cur))), int64(int16(binary.LittleEndian.Uint16(delta)))
		binary.LittleEndian.PutUint16(out, uint16(int16(combineSigned(op, a, b))))
	case dtype.Uint16:
		a, b := uint64(binary.LittleEndian.Uint16(cur)), uint64(binary.LittleEndian.Uint16(delta))
		binary.LittleEndian.PutUint16(out, uint16(combineUnsigned(op, a, b)))
	case dtype.Int32:
		a, b := int64(int32(binary.LittleEndian.Uint32(cur))), int64(int32(binary.LittleEndian.Uint32(delta)))
		binary.LittleEndian.PutUint32(out, uint32(int32(combineSigned(op, a, b))))
	case dtype.Uint32:
		a, b := uint64(binary.LittleEndian.Uint32(cur)), uint64(binary.LittleEndian.Uint32(delta))
		binary.LittleEndian.PutUint32(out, uint32(combineUnsigned(op, a, b)))
	case dtype.Int64:
		a, b := int64(binary.LittleEndian.Uint64(cur)), int64(binary.LittleEndian.Uint64(delta))
		binary.LittleEndian.PutUint64(out, uint64(combineSigned(op, a, b)))
	case dtype.Uint64:
		a, b := binary.LittleEndian.Uint64(cur), binary.LittleEndian.Uint64(delta)
		binary.LittleEndian.PutUint64(out, combineUnsigned(op, a, b))
	case dtype.Float32:
		a := float64(math.Float32frombits(binary.LittleEndian.Uint32(cur)))
		b := float64(math.Float32frombits(binary.LittleEndian.Uint32(delta)))
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(combineFloat(op, a, b))))
	case dtype.Float64:
		a := math.Float64frombits(binary.LittleEndian.Uint64(cur))
		b := math.Float64frombits(binary.LittleEndian.Uint64(delta))
		binary.LittleEndian.PutUint64(out, math.Float64bits(combineFloat(op, a, b)))
	case dtype.Complex64:
		for i := 0; i < 2; i++ {
			a := math.Float32frombits(binary.LittleEndian.Uint32(cur[i*4:]))
			b := math.Float32frombits(binary.LittleEndian.Uint32(delta[i*4:]))
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(a+b))
		}
	case dtype.Complex128:
		for i := 0; i < 2; i++ {
			a := math.Float64frombits(binary.LittleEndian.Uint64(cur[i*8:]))
			b := math.Float64frombits(binary.LittleEndian.Uint64(delta[i*8:]))
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(a+b))
		}
	default:
		copy(out, cur)
	}
	return out
}

func combineSigned(op dtype.Op, a, b int64) int64 {
	switch op {
	case dtype.OpSum:
		return a + b
	case dtype.OpProd:
		return a * b
	case dtype.OpAnd:
		return a & b
	case dtype.OpOr:
		return a | b
	case dtype.OpXor:
		return a ^ b
	case dtype.OpMin:
		if a < b {
			return a
		}
		return b
	case dtype.OpMax:
		if a > b {
			return a
		}
		return b
	default:
		return b
	}
}

func combineUnsigned(op dtype.Op, a, b uint64) uint64 {
	switch op {
	case dtype.OpSum:
		return a + b
	case dtype.OpProd:
		return a * b
	case dtype.OpAnd:
		return a & b
	case dtype.OpOr:
		return a | b
	case dtype.OpXor:
		return a ^ b
	case dtype.OpMin:
		if a < b {
			return a
		}
		return b
	case dtype.OpMax:
		if a > b {
			return a
		}
		return b
	default:
		return b
	}
}

func combineFloat(op dtype.Op, a, b float64) float64 {
	switch op {
	case dtype.OpSum:
		return a + b
	case dtype.OpProd:
		return a * b
	case dtype.OpMin:
		return math.Min(a, b)
	case dtype.OpMax:
		return math.Max(a, b)
	default:
		return b
	}
}

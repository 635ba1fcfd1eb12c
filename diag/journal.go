// Package diag is the optional diagnostic journal spec.md §9 calls for:
// a bounded ring of recent collective invocations, kept in an embedded
// buntdb store so a stuck job can be inspected without instrumenting the
// call sites themselves, and a jsoniter-based snapshot dump for ad hoc
// debugging. Grounded on aistore's xaction notion of a bounded recent-
// history log, re-expressed here over buntdb instead of an in-memory
// ring since the original has no equivalent structure to adapt from.
package diag

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/buntdb"
)

// Entry is one recorded collective invocation.
type Entry struct {
	Kind      string        `json:"kind"`
	PEStart   int           `json:"pe_start"`
	PEStride  int           `json:"pe_stride"`
	PESize    int           `json:"pe_size"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	OK        bool          `json:"ok"`
	Err       string        `json:"err,omitempty"`
}

// Journal is a bounded ring of Entry values backed by an in-memory
// buntdb database. A nil *Journal is valid and every method on it is a
// no-op, so callers can leave diagnostics disabled by simply not
// constructing one (spec.md §9 "optional").
type Journal struct {
	db       *buntdb.DB
	capacity int
	seq      uint64
}

// Open creates a Journal retaining at most capacity entries. Passing ":memory:"
// semantics is implicit: buntdb's own ":memory:" path is always used here,
// since the journal is a debugging aid, not a crash-recoverable log.
func Open(capacity int) (*Journal, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("diag: open journal: %w", err)
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &Journal{db: db, capacity: capacity}, nil
}

// Close releases the journal's backing store.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one entry, evicting the oldest once the journal is over
// capacity.
func (j *Journal) Record(e Entry) {
	if j == nil {
		return
	}
	buf, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err != nil {
		return
	}
	j.seq++
	key := fmt.Sprintf("entry:%020d", j.seq)
	_ = j.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(buf), nil)
		return err
	})
	if j.seq > uint64(j.capacity) {
		evict := j.seq - uint64(j.capacity)
		_ = j.db.Update(func(tx *buntdb.Tx) error {
			_, err := tx.Delete(fmt.Sprintf("entry:%020d", evict))
			if err == buntdb.ErrNotFound {
				return nil
			}
			return err
		})
	}
}

// Snapshot returns every retained entry, oldest first.
func (j *Journal) Snapshot() ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	var entries []Entry
	err := j.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("entry:*", func(key, value string) bool {
			var e Entry
			if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(value, &e); err == nil {
				entries = append(entries, e)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("diag: snapshot journal: %w", err)
	}
	return entries, nil
}

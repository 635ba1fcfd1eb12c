package cmn

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/teris-io/shortid"

	"github.com/sandialabs/goshmem/cmn/nlog"
)

// ErrKind is one of the four fatal-abort kinds of spec.md §7.
type ErrKind int

const (
	ErrUsage ErrKind = iota
	ErrTransport
	ErrRemoteCompletion
	ErrInit
)

func (k ErrKind) String() string {
	switch k {
	case ErrUsage:
		return "usage"
	case ErrTransport:
		return "transport"
	case ErrRemoteCompletion:
		return "remote-completion"
	case ErrInit:
		return "init"
	default:
		return "unknown"
	}
}

// AbortError is the value Abort panics with; callers that install a
// recoverable AbortFunc (tests) can recover and inspect it.
type AbortError struct {
	PE   int
	Kind ErrKind
	ID   string
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("[pe %d] %s error (%s): %v", e.PE, e.Kind, e.ID, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// AbortFunc is the process-exit strategy, swappable in tests. Production
// code leaves it as the default, which logs and calls nlog.Abort (os.Exit).
var AbortFunc = func(e *AbortError) {
	nlog.Fatalln(e.Error())
}

// Abort raises a fatal, kind-tagged error carrying the issuing PE id and an
// id usable to correlate against diag.Journal entries and log lines. No
// error is ever returned to the caller: aborting is the only outcome,
// matching the fail-stop-per-PE model of spec.md §7.
func Abort(pe int, kind ErrKind, err error) {
	id, genErr := shortid.Generate()
	if genErr != nil {
		id = "unid"
	}
	wrapped := errors.WithStack(err)
	AbortFunc(&AbortError{PE: pe, Kind: kind, ID: id, Err: wrapped})
}

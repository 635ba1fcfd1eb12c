// Package dtype is the datatype registry spec.md §6 calls for: the Go
// analogues of SHMEM's {short, int, long, long long, float, double, long
// double, complex} types, plus which reduction/atomic operators each one
// admits.
package dtype

import "fmt"

// Datatype tags the wire/atomic-engine type of a word being transferred,
// the Go analogue of Portals' ptl_datatype_t.
type Datatype uint8

const (
	Int16 Datatype = iota
	Int32
	Int64
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
)

// Op is the reduction/atomic operator, the Go analogue of ptl_op_t.
type Op uint8

const (
	OpSum Op = iota
	OpProd
	OpAnd
	OpOr
	OpXor
	OpMin
	OpMax
)

func (d Datatype) String() string {
	switch d {
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// Size returns sizeof(the widest scalar admitted by d) in bytes, used by
// the transfer engine's segmentation-admission check (spec.md §4.3: every
// op other than plain put/atomic must have len <= sizeof(widest scalar)).
func (d Datatype) Size() int {
	switch d {
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

func (o Op) String() string {
	switch o {
	case OpSum:
		return "sum"
	case OpProd:
		return "prod"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// bitwiseCapable holds the types that admit AND/OR/XOR, matching the
// original's restriction of bitwise atomics to integer types.
var bitwiseCapable = map[Datatype]bool{
	Int16: true, Int32: true, Int64: true,
	Uint16: true, Uint32: true, Uint64: true,
}

// Admits reports whether datatype d supports reduction/atomic operator op.
// SUM/PROD/MIN/MAX are admitted by every arithmetic type (all but the
// complex types, which admit only SUM); AND/OR/XOR are integer-only.
func (d Datatype) Admits(op Op) bool {
	switch op {
	case OpSum:
		return true
	case OpProd, OpMin, OpMax:
		return d != Complex64 && d != Complex128
	case OpAnd, OpOr, OpXor:
		return bitwiseCapable[d]
	default:
		return false
	}
}

// WidestScalarSize is sizeof(long double complex) in the original — the
// largest single scalar the transfer engine will ever move as one atomic
// unit. Get asserts its length against this bound; swap and fetch-atomic
// assert against the element size dt.Size() instead.
const WidestScalarSize = 16

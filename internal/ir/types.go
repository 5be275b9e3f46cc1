package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeCode categorizes the scalar kind of a DType.
type TypeCode int

const (
	// KindInt is a signed integer type.
	KindInt TypeCode = iota
	// KindUInt is an unsigned integer type.
	KindUInt
	// KindFloat is a floating point type.
	KindFloat
	// KindHandle is an opaque pointer type.
	KindHandle
)

func (c TypeCode) String() string {
	switch c {
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindFloat:
		return "float"
	case KindHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// DType describes the element type of values and buffers.
type DType struct {
	Code  TypeCode
	Bits  int
	Lanes int
}

// Common scalar types.
var (
	Int32   = DType{Code: KindInt, Bits: 32, Lanes: 1}
	Int64   = DType{Code: KindInt, Bits: 64, Lanes: 1}
	UInt8   = DType{Code: KindUInt, Bits: 8, Lanes: 1}
	Float16 = DType{Code: KindFloat, Bits: 16, Lanes: 1}
	Float32 = DType{Code: KindFloat, Bits: 32, Lanes: 1}
	Float64 = DType{Code: KindFloat, Bits: 64, Lanes: 1}
	Handle  = DType{Code: KindHandle, Bits: 64, Lanes: 1}
)

// Bytes returns the storage size of one element in bytes.
// Sub-byte widths round up to a full byte per lane.
func (t DType) Bytes() int64 {
	return int64((t.Bits + 7) / 8 * max(t.Lanes, 1))
}

// String renders the type in its textual form, e.g. "float32" or "int8x4".
func (t DType) String() string {
	s := fmt.Sprintf("%s%d", t.Code, t.Bits)
	if t.Lanes > 1 {
		s += fmt.Sprintf("x%d", t.Lanes)
	}
	return s
}

// ParseDType parses the textual form produced by String.
func ParseDType(s string) (DType, error) {
	rest := s
	lanes := 1
	if i := strings.IndexByte(rest, 'x'); i >= 0 {
		n, err := strconv.Atoi(rest[i+1:])
		if err != nil || n <= 0 {
			return DType{}, fmt.Errorf("invalid dtype lanes in %q", s)
		}
		lanes = n
		rest = rest[:i]
	}

	var code TypeCode
	switch {
	case strings.HasPrefix(rest, "uint"):
		code = KindUInt
		rest = rest[4:]
	case strings.HasPrefix(rest, "int"):
		code = KindInt
		rest = rest[3:]
	case strings.HasPrefix(rest, "float"):
		code = KindFloat
		rest = rest[5:]
	case strings.HasPrefix(rest, "handle"):
		code = KindHandle
		rest = rest[6:]
	default:
		return DType{}, fmt.Errorf("invalid dtype %q", s)
	}

	bits, err := strconv.Atoi(rest)
	if err != nil || bits <= 0 {
		return DType{}, fmt.Errorf("invalid dtype bits in %q", s)
	}
	return DType{Code: code, Bits: bits, Lanes: lanes}, nil
}

// Object is a sealed interface over IR entities an AttrStmt can annotate.
//
// Object types:
//   - *Var: a named variable (buffer classification targets)
//   - *IterVar: an iteration variable (thread extent targets)
type Object interface {
	objectNode() // Marker method - seals interface to this package
}

// Var is a named, typed variable. Buffer variables are compared by pointer
// identity, never by name: two distinct *Var with equal names are distinct
// variables.
type Var struct {
	Name  string
	DType DType
}

func (*Var) objectNode() {}
func (*Var) exprNode()   {}

// NewVar constructs a fresh variable.
func NewVar(name string, t DType) *Var {
	return &Var{Name: name, DType: t}
}

// IterVar is an iteration variable bound over some extent. Thread dimensions
// are iter vars whose underlying variable is named "threadIdx.x",
// "threadIdx.y", or "threadIdx.z".
type IterVar struct {
	Var *Var
}

func (*IterVar) objectNode() {}

// NewIterVar constructs an iteration variable over a fresh int32 variable.
func NewIterVar(name string) *IterVar {
	return &IterVar{Var: NewVar(name, Int32)}
}

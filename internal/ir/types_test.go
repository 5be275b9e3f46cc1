package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTypeBytes(t *testing.T) {
	assert.Equal(t, int64(4), Float32.Bytes())
	assert.Equal(t, int64(8), Int64.Bytes())
	assert.Equal(t, int64(1), UInt8.Bytes())
	assert.Equal(t, int64(2), Float16.Bytes())
}

func TestDTypeBytesRoundsSubByteWidths(t *testing.T) {
	// A 1-bit predicate still occupies a full byte per lane.
	pred := DType{Code: KindUInt, Bits: 1, Lanes: 1}
	assert.Equal(t, int64(1), pred.Bytes())
}

func TestDTypeBytesVector(t *testing.T) {
	vec := DType{Code: KindFloat, Bits: 32, Lanes: 4}
	assert.Equal(t, int64(16), vec.Bytes())
	assert.Equal(t, "float32x4", vec.String())
}

func TestParseDTypeRoundTrip(t *testing.T) {
	for _, dt := range []DType{Int32, Int64, UInt8, Float16, Float32, Float64, Handle,
		{Code: KindInt, Bits: 8, Lanes: 4}} {
		parsed, err := ParseDType(dt.String())
		require.NoError(t, err, "parsing %q", dt.String())
		assert.Equal(t, dt, parsed)
	}
}

func TestParseDTypeRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "quux", "int", "float32x0", "intx4", "float-8"} {
		_, err := ParseDType(s)
		assert.Error(t, err, "expected parse failure for %q", s)
	}
}

func TestVarIdentityIsPointerBased(t *testing.T) {
	a := NewVar("buf", Float32)
	b := NewVar("buf", Float32)

	// Equal names do not make equal variables.
	assert.NotSame(t, a, b)
	set := map[*Var]struct{}{a: {}}
	_, ok := set[b]
	assert.False(t, ok)
}

func TestConstantAllocationSize(t *testing.T) {
	buf := NewVar("A", Float32)

	alloc := &Allocate{Buffer: buf, DType: Float32, Extents: []PrimExpr{Int(16), Int(64)}}
	assert.Equal(t, int64(1024), alloc.ConstantAllocationSize())

	// A non-constant extent makes the whole size non-constant.
	n := NewVar("n", Int32)
	dynamic := &Allocate{Buffer: buf, DType: Float32, Extents: []PrimExpr{Int(16), n}}
	assert.Equal(t, int64(0), dynamic.ConstantAllocationSize())

	// No extents means a scalar allocation of one element.
	scalar := &Allocate{Buffer: buf, DType: Float32}
	assert.Equal(t, int64(1), scalar.ConstantAllocationSize())
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kernelTree builds a representative kernel: thread extents, a shared
// buffer classification, an allocation, and a store loop.
func kernelTree() Stmt {
	buf := NewVar("A.shared", Handle)
	tx := NewIterVar(ThreadIdxX)
	i := NewVar("i", Int32)

	body := &For{
		LoopVar: i,
		Min:     Int(0),
		Extent:  Int(64),
		Body: &Store{
			Buffer: buf,
			Value:  &Add{A: i, B: Int(1)},
			Index:  &Mul{A: i, B: Int(4)},
		},
	}
	alloc := &Allocate{Buffer: buf, DType: Float32, Extents: []PrimExpr{Int(1024)}, Body: body}
	scope := &AttrStmt{Key: AttrStorageScope, Node: buf, Value: Str("shared"), Body: alloc}
	extent := &AttrStmt{Key: AttrThreadExtent, Node: tx, Value: Int(32), Body: scope}
	return &ProducerConsumer{IsProducer: true, Body: extent}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := kernelTree()

	data, err := EncodeStmt(original)
	require.NoError(t, err)

	decoded, err := DecodeStmt(data)
	require.NoError(t, err)

	// Structural equality via re-encoding: the decoded tree has fresh
	// pointers, so compare serialized forms.
	reencoded, err := EncodeStmt(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(reencoded))
}

func TestDecodeInternsVariablesByName(t *testing.T) {
	data, err := EncodeStmt(kernelTree())
	require.NoError(t, err)

	decoded, err := DecodeStmt(data)
	require.NoError(t, err)

	// The storage_scope annotation and the allocation must share one *Var.
	var annotated, allocated *Var
	Walk(decoded, func(s Stmt) bool {
		switch s := s.(type) {
		case *AttrStmt:
			if s.Key == AttrStorageScope {
				annotated = s.Node.(*Var)
			}
		case *Allocate:
			allocated = s.Buffer
		}
		return true
	})
	require.NotNil(t, annotated)
	require.NotNil(t, allocated)
	assert.Same(t, annotated, allocated)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := DecodeStmt([]byte(`{"kind":"launch","body":null}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statement kind")
}

func TestDecodeRejectsMissingKind(t *testing.T) {
	_, err := DecodeStmt([]byte(`{"is_producer":true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing kind")
}

func TestDecodePreservesLargeIntegers(t *testing.T) {
	// 2^60 would lose precision through float64.
	const big = int64(1) << 60
	tree := &Evaluate{Value: &IntImm{DType: Int64, Value: big}}

	data, err := EncodeStmt(tree)
	require.NoError(t, err)

	decoded, err := DecodeStmt(data)
	require.NoError(t, err)

	eval := decoded.(*Evaluate)
	imm := eval.Value.(*IntImm)
	assert.Equal(t, big, imm.Value)
}

func TestDecodeOptionalElseBranch(t *testing.T) {
	withElse := &IfThenElse{
		Condition: Int(1),
		Then:      &Evaluate{Value: Int(1)},
		Else:      &Evaluate{Value: Int(2)},
	}
	withoutElse := &IfThenElse{Condition: Int(1), Then: &Evaluate{Value: Int(1)}}

	for _, tree := range []Stmt{withElse, withoutElse} {
		data, err := EncodeStmt(tree)
		require.NoError(t, err)
		decoded, err := DecodeStmt(data)
		require.NoError(t, err)
		reencoded, err := EncodeStmt(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(data), string(reencoded))
	}
}

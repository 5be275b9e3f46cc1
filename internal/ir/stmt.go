package ir

// Attribute keys the verifier understands. Other keys pass through
// unchanged.
const (
	// AttrStorageScope classifies a buffer variable into a storage scope
	// ("local", "shared", "global", ...).
	AttrStorageScope = "storage_scope"

	// AttrThreadExtent binds an iteration variable to its launch extent.
	AttrThreadExtent = "thread_extent"
)

// Thread dimension names composing a block's launch configuration.
const (
	ThreadIdxX = "threadIdx.x"
	ThreadIdxY = "threadIdx.y"
	ThreadIdxZ = "threadIdx.z"
)

// Stmt represents a statement in the tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Statement types:
//   - *ProducerConsumer: kernel region boundary marker
//   - *AttrStmt: attribute annotation over a subtree
//   - *Allocate: on-device buffer allocation
//   - *SeqStmt: statement sequence
//   - *For: serial loop
//   - *Store: buffer store
//   - *Evaluate: expression statement
//   - *IfThenElse: conditional
type Stmt interface {
	stmtNode() // Marker method - seals interface to this package
}

// ProducerConsumer delimits a device kernel region. Markers nest; only
// transitions into and out of nest depth zero delimit one independently
// verified kernel. IsProducer distinguishes the outer producer role from a
// plain pass-through marker.
type ProducerConsumer struct {
	IsProducer bool
	Body       Stmt
}

func (*ProducerConsumer) stmtNode() {}

// AttrStmt attaches a key/value annotation to Node, scoped over Body.
type AttrStmt struct {
	Key   string
	Node  Object
	Value PrimExpr
	Body  Stmt
}

func (*AttrStmt) stmtNode() {}

// Allocate declares an on-device buffer of Extents elements of DType,
// live over Body.
type Allocate struct {
	Buffer  *Var
	DType   DType
	Extents []PrimExpr
	Body    Stmt
}

func (*Allocate) stmtNode() {}

// ConstantAllocationSize returns the element count of the allocation when
// every extent is a constant integer, and 0 otherwise.
func (a *Allocate) ConstantAllocationSize() int64 {
	size := int64(1)
	for _, e := range a.Extents {
		v, ok := ConstInt(e)
		if !ok {
			return 0
		}
		size *= v
	}
	return size
}

// SeqStmt executes Stmts in order.
type SeqStmt struct {
	Stmts []Stmt
}

func (*SeqStmt) stmtNode() {}

// Seq builds a SeqStmt from its arguments.
func Seq(stmts ...Stmt) *SeqStmt {
	return &SeqStmt{Stmts: stmts}
}

// For is a serial loop of LoopVar over [Min, Min+Extent).
type For struct {
	LoopVar *Var
	Min     PrimExpr
	Extent  PrimExpr
	Body    Stmt
}

func (*For) stmtNode() {}

// Store writes Value to Buffer at Index.
type Store struct {
	Buffer *Var
	Value  PrimExpr
	Index  PrimExpr
}

func (*Store) stmtNode() {}

// Evaluate evaluates Value for effect.
type Evaluate struct {
	Value PrimExpr
}

func (*Evaluate) stmtNode() {}

// IfThenElse branches on Condition. Else may be nil.
type IfThenElse struct {
	Condition PrimExpr
	Then      Stmt
	Else      Stmt
}

func (*IfThenElse) stmtNode() {}

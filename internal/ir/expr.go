package ir

// PrimExpr represents a primitive expression in the statement tree.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in passes.
//
// Expression types:
//   - *IntImm: constant integer
//   - *StringImm: constant string
//   - *Var: variable reference
//   - *Add, *Mul: binary arithmetic
//
// Verification only inspects constants; arithmetic nodes exist so realistic
// trees (loop bounds, store indices) round-trip through the pass untouched.
type PrimExpr interface {
	exprNode() // Marker method - seals interface to this package
}

// IntImm is a constant integer expression.
type IntImm struct {
	DType DType
	Value int64
}

func (*IntImm) exprNode() {}

// Int constructs an int32 constant.
func Int(v int64) *IntImm {
	return &IntImm{DType: Int32, Value: v}
}

// StringImm is a constant string expression, used as attribute values
// such as storage scopes.
type StringImm struct {
	Value string
}

func (*StringImm) exprNode() {}

// Str constructs a string constant.
func Str(v string) *StringImm {
	return &StringImm{Value: v}
}

// Add is the sum of two expressions.
type Add struct {
	A PrimExpr
	B PrimExpr
}

func (*Add) exprNode() {}

// Mul is the product of two expressions.
type Mul struct {
	A PrimExpr
	B PrimExpr
}

func (*Mul) exprNode() {}

// ConstInt reports the value of e when e is a constant integer.
func ConstInt(e PrimExpr) (int64, bool) {
	imm, ok := e.(*IntImm)
	if !ok {
		return 0, false
	}
	return imm.Value, true
}

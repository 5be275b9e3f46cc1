// Package ir provides the statement tree that kernelgate verifies.
//
// This package contains the tree types, generic child traversal, and
// serialization only. All other internal packages import ir; ir imports
// nothing internal. This keeps IR the foundational layer with no circular
// dependencies.
//
// SEALED INTERFACES:
//
// Stmt, PrimExpr, and Object are sealed interfaces using the marker method
// pattern. Only types in this package can implement them.
//
// This enables:
//   - Exhaustive type switches in verification passes
//   - Compile-time safety against external extensions
//   - A closed, kind-tagged JSON encoding
//
// Example:
//
//	switch s := stmt.(type) {
//	case *ir.ProducerConsumer:
//	    // Kernel region boundary
//	case *ir.Allocate:
//	    // Buffer allocation
//	default:
//	    ir.EachChild(s, visit) // Generic pass-through
//	}
//
// VARIABLE IDENTITY:
//
// Buffer variables are identified by pointer, not by name. An annotation that
// classifies a buffer and the allocation of that buffer must reference the
// same *Var. The JSON decoder interns variables by name so a decoded tree
// satisfies this.
//
// All sizes and extents are int64. The tree is immutable once built and
// acyclic; passes hold non-owning references only for one traversal.
package ir

package ir

// EachChild invokes visit on every direct child statement of s, in lexical
// order. It is the generic traversal default for passes that pattern-match
// on statement kinds: handle the kinds you care about, call EachChild for
// the rest.
//
// Passes that depend on visit order (classification before accounting,
// post-order size computation) get it from the tree's lexical nesting:
// EachChild always yields children in source order.
func EachChild(s Stmt, visit func(Stmt)) {
	switch s := s.(type) {
	case *ProducerConsumer:
		if s.Body != nil {
			visit(s.Body)
		}
	case *AttrStmt:
		if s.Body != nil {
			visit(s.Body)
		}
	case *Allocate:
		if s.Body != nil {
			visit(s.Body)
		}
	case *SeqStmt:
		for _, child := range s.Stmts {
			if child != nil {
				visit(child)
			}
		}
	case *For:
		if s.Body != nil {
			visit(s.Body)
		}
	case *IfThenElse:
		if s.Then != nil {
			visit(s.Then)
		}
		if s.Else != nil {
			visit(s.Else)
		}
	case *Store, *Evaluate:
		// Leaf statements.
	}
}

// Walk performs a pre-order depth-first traversal of the whole subtree
// rooted at s, calling visit on every statement. If visit returns false the
// children of that statement are skipped.
func Walk(s Stmt, visit func(Stmt) bool) {
	if s == nil || !visit(s) {
		return
	}
	EachChild(s, func(child Stmt) {
		Walk(child, visit)
	})
}

package verify

import (
	"github.com/kernelgate/kernelgate/internal/ir"
)

// GPUCode resolves the limit configuration and verifies the tree against
// it. It is the driver callers use as a compilation gate: true means every
// kernel region fits the device, false means at least one region violates
// at least one bound. The error is non-nil only for malformed input.
func GPUCode(s ir.Stmt, constraints map[string]ir.PrimExpr) (bool, error) {
	lim, err := ResolveLimits(constraints)
	if err != nil {
		return false, err
	}
	return Verify(s, lim)
}

// Verify runs one traversal of s against the resolved bounds. The tree is
// read-only during verification; each call uses a fresh accountant.
func Verify(s ir.Stmt, lim Limits) (bool, error) {
	a := &accountant{limits: lim, valid: true}
	a.reset()
	a.visit(s)
	if a.err != nil {
		return false, a.err
	}
	return a.valid, nil
}

// accountant carries the per-kernel resource counters through one
// depth-first traversal. Lifecycle of the counter state is one kernel
// region: reset on every entry at nest depth zero, checked on the matching
// exit. The verdict accumulates across regions and never recovers once
// false.
type accountant struct {
	limits Limits

	nestLevel int

	localBuffers   map[*ir.Var]struct{}
	sharedBuffers  map[*ir.Var]struct{}
	visitedThreads map[string]struct{}

	localPerBlock  int64
	sharedPerBlock int64
	threadPerBlock int64

	valid bool
	err   error
}

// reset clears the per-kernel state. The verdict and nest level survive.
func (a *accountant) reset() {
	a.localBuffers = make(map[*ir.Var]struct{})
	a.sharedBuffers = make(map[*ir.Var]struct{})
	a.localPerBlock = 0
	a.sharedPerBlock = 0

	a.visitedThreads = make(map[string]struct{})
	a.threadPerBlock = 1
}

func (a *accountant) visit(s ir.Stmt) {
	if a.err != nil {
		return
	}
	switch s := s.(type) {
	case *ir.ProducerConsumer:
		a.visitProducerConsumer(s)
	case *ir.Allocate:
		a.visitAllocate(s)
	case *ir.AttrStmt:
		a.visitAttrStmt(s)
	default:
		ir.EachChild(s, a.visit)
	}
}

func (a *accountant) visitProducerConsumer(s *ir.ProducerConsumer) {
	if a.nestLevel == 0 {
		// Entering a new kernel region.
		a.reset()
	}

	if s.IsProducer {
		a.nestLevel++
		ir.EachChild(s, a.visit)
		a.nestLevel--
	} else {
		ir.EachChild(s, a.visit)
	}

	if a.nestLevel == 0 {
		// Exiting the outermost marker of the region.
		a.valid = a.valid && a.threadPerBlock <= a.limits.ThreadsPerBlock
		a.valid = a.valid && a.localPerBlock <= a.limits.LocalMemoryPerBlock
		a.valid = a.valid && a.sharedPerBlock <= a.limits.SharedMemoryPerBlock
	}
}

func (a *accountant) visitAllocate(s *ir.Allocate) {
	// Post-order: the allocation contributes only if an annotation already
	// classified its buffer when we get here.
	ir.EachChild(s, a.visit)
	if a.err != nil {
		return
	}

	size := s.ConstantAllocationSize() * s.DType.Bytes()
	if _, ok := a.localBuffers[s.Buffer]; ok {
		a.localPerBlock += size
	} else if _, ok := a.sharedBuffers[s.Buffer]; ok {
		a.sharedPerBlock += size
	}
	// Unclassified or global-scope buffers do not consume block budgets.
}

func (a *accountant) visitAttrStmt(s *ir.AttrStmt) {
	switch s.Key {
	case ir.AttrStorageScope:
		a.recordStorageScope(s)
	case ir.AttrThreadExtent:
		a.recordThreadExtent(s)
		if a.err != nil {
			return
		}
	}
	ir.EachChild(s, a.visit)
}

// recordStorageScope classifies the annotated buffer variable. Scopes other
// than "local" and "shared", non-string scope values, and non-variable
// targets are all ignored: they name memory outside the per-block budgets.
func (a *accountant) recordStorageScope(s *ir.AttrStmt) {
	buf, ok := s.Node.(*ir.Var)
	if !ok {
		return
	}
	scope, ok := s.Value.(*ir.StringImm)
	if !ok {
		return
	}
	switch scope.Value {
	case "local":
		a.localBuffers[buf] = struct{}{}
	case "shared":
		a.sharedBuffers[buf] = struct{}{}
	}
}

// recordThreadExtent counts a block thread dimension. Each of threadIdx.x,
// threadIdx.y, threadIdx.z is counted at most once per kernel region; a
// repeated declaration is ignored, whatever extent it declares. Names
// outside the three (block indices, virtual threads) do not affect the
// block budget.
func (a *accountant) recordThreadExtent(s *ir.AttrStmt) {
	iv, ok := s.Node.(*ir.IterVar)
	if !ok {
		a.err = badThreadTarget(s.Node)
		return
	}
	extent, ok := ir.ConstInt(s.Value)
	if !ok {
		a.err = badThreadExtent(s.Value)
		return
	}

	name := iv.Var.Name
	switch name {
	case ir.ThreadIdxX, ir.ThreadIdxY, ir.ThreadIdxZ:
	default:
		return
	}
	if _, seen := a.visitedThreads[name]; seen {
		return
	}
	a.visitedThreads[name] = struct{}{}
	a.threadPerBlock *= extent

	switch name {
	case ir.ThreadIdxX:
		a.valid = a.valid && extent <= a.limits.ThreadX
	case ir.ThreadIdxY:
		a.valid = a.valid && extent <= a.limits.ThreadY
	case ir.ThreadIdxZ:
		a.valid = a.valid && extent <= a.limits.ThreadZ
	}
}

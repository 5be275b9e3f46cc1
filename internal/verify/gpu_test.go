package verify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kernelgate/kernelgate/internal/ir"
)

// Tree-building shorthands. Real schedules nest thread extents around
// storage scopes around allocations; these helpers mirror that shape.

func nop() ir.Stmt {
	return &ir.Evaluate{Value: ir.Int(0)}
}

func producer(body ir.Stmt) *ir.ProducerConsumer {
	return &ir.ProducerConsumer{IsProducer: true, Body: body}
}

func threadExtent(name string, extent int64, body ir.Stmt) *ir.AttrStmt {
	return &ir.AttrStmt{
		Key:   ir.AttrThreadExtent,
		Node:  ir.NewIterVar(name),
		Value: ir.Int(extent),
		Body:  body,
	}
}

func storageScope(buf *ir.Var, scope string, body ir.Stmt) *ir.AttrStmt {
	return &ir.AttrStmt{
		Key:   ir.AttrStorageScope,
		Node:  buf,
		Value: ir.Str(scope),
		Body:  body,
	}
}

func alloc(buf *ir.Var, t ir.DType, count int64, body ir.Stmt) *ir.Allocate {
	return &ir.Allocate{
		Buffer:  buf,
		DType:   t,
		Extents: []ir.PrimExpr{ir.Int(count)},
		Body:    body,
	}
}

func mustVerify(t *testing.T, s ir.Stmt, lim Limits) bool {
	t.Helper()
	ok, err := Verify(s, lim)
	require.NoError(t, err)
	return ok
}

func TestNoKernelRegionsIsVacuouslyValid(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 1
	lim.SharedMemoryPerBlock = 0

	tree := ir.Seq(
		threadExtent(ir.ThreadIdxX, 1024, nop()),
		nop(),
	)

	// Bounds are only checked at kernel region boundaries; without a
	// region marker there is nothing to check.
	assert.True(t, mustVerify(t, tree, lim))
}

func TestThreadProductWithinBounds(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 256
	lim.ThreadX = 32
	lim.ThreadY = 16

	tree := producer(
		threadExtent(ir.ThreadIdxX, 32,
			threadExtent(ir.ThreadIdxY, 8, nop())))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestThreadProductExceedsBlockBound(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 255
	lim.ThreadX = 32
	lim.ThreadY = 16

	tree := producer(
		threadExtent(ir.ThreadIdxX, 32,
			threadExtent(ir.ThreadIdxY, 8, nop())))

	// 32*8 = 256 > 255.
	assert.False(t, mustVerify(t, tree, lim))
}

func TestPerDimensionBoundChecked(t *testing.T) {
	lim := Unlimited()
	lim.ThreadY = 4

	tree := producer(threadExtent(ir.ThreadIdxY, 8, nop()))

	assert.False(t, mustVerify(t, tree, lim))
}

func TestDuplicateDimensionCountedOnce(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 16
	lim.ThreadX = 16

	tree := producer(
		threadExtent(ir.ThreadIdxX, 16,
			threadExtent(ir.ThreadIdxX, 16, nop())))

	// The repeat does not square the product.
	assert.True(t, mustVerify(t, tree, lim))
}

func TestDuplicateDimensionSecondExtentIgnored(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 16
	lim.ThreadX = 16

	// The second declaration is out of bounds but is never applied:
	// idempotent-after-first semantics.
	tree := producer(
		threadExtent(ir.ThreadIdxX, 16,
			threadExtent(ir.ThreadIdxX, 100, nop())))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestNonBlockDimensionsNotCounted(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 1

	tree := producer(
		threadExtent("blockIdx.x", 4096,
			threadExtent("vthread", 16, nop())))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestSharedMemoryBound(t *testing.T) {
	buf := ir.NewVar("A.shared", ir.Handle)
	tree := producer(
		storageScope(buf, "shared",
			alloc(buf, ir.Float32, 1024, nop())))

	over := Unlimited()
	over.SharedMemoryPerBlock = 4095
	assert.False(t, mustVerify(t, tree, over)) // 1024*4 = 4096 > 4095

	exact := Unlimited()
	exact.SharedMemoryPerBlock = 4096
	assert.True(t, mustVerify(t, tree, exact))
}

func TestLocalMemoryBound(t *testing.T) {
	buf := ir.NewVar("acc.local", ir.Handle)
	tree := producer(
		storageScope(buf, "local",
			alloc(buf, ir.Float64, 64, nop())))

	over := Unlimited()
	over.LocalMemoryPerBlock = 511
	assert.False(t, mustVerify(t, tree, over)) // 64*8 = 512 > 511

	exact := Unlimited()
	exact.LocalMemoryPerBlock = 512
	assert.True(t, mustVerify(t, tree, exact))
}

func TestScopesAccumulateIndependently(t *testing.T) {
	local := ir.NewVar("acc.local", ir.Handle)
	shared := ir.NewVar("A.shared", ir.Handle)
	tree := producer(
		storageScope(local, "local",
			storageScope(shared, "shared",
				alloc(local, ir.Float32, 8,
					alloc(shared, ir.Float32, 1024, nop())))))

	lim := Unlimited()
	lim.LocalMemoryPerBlock = 32
	lim.SharedMemoryPerBlock = 4096
	assert.True(t, mustVerify(t, tree, lim))

	lim.SharedMemoryPerBlock = 4095
	assert.False(t, mustVerify(t, tree, lim))
}

func TestUnclassifiedAllocationIsUntracked(t *testing.T) {
	lim := Unlimited()
	lim.LocalMemoryPerBlock = 1
	lim.SharedMemoryPerBlock = 1

	buf := ir.NewVar("big", ir.Handle)
	tree := producer(alloc(buf, ir.Float64, 1<<20, nop()))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestOtherStorageScopesIgnored(t *testing.T) {
	lim := Unlimited()
	lim.LocalMemoryPerBlock = 1
	lim.SharedMemoryPerBlock = 1

	buf := ir.NewVar("B", ir.Handle)
	tree := producer(
		storageScope(buf, "global",
			alloc(buf, ir.Float32, 1<<20, nop())))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestClassificationAfterAllocationDoesNotCount(t *testing.T) {
	lim := Unlimited()
	lim.SharedMemoryPerBlock = 1

	buf := ir.NewVar("A.shared", ir.Handle)
	// The classification is a later sibling of the allocation, so the
	// allocation is fully accounted before the scope is recorded.
	tree := producer(ir.Seq(
		alloc(buf, ir.Float32, 1024, nop()),
		storageScope(buf, "shared", nop()),
	))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestClassificationInsideAllocationBodyCounts(t *testing.T) {
	lim := Unlimited()
	lim.SharedMemoryPerBlock = 1

	buf := ir.NewVar("A.shared", ir.Handle)
	// Post-order accounting: children are visited before the allocation
	// contributes, so a classification inside the body is in effect.
	tree := producer(
		alloc(buf, ir.Float32, 1024,
			storageScope(buf, "shared", nop())))

	assert.False(t, mustVerify(t, tree, lim))
}

func TestDynamicExtentAllocationContributesNothing(t *testing.T) {
	lim := Unlimited()
	lim.SharedMemoryPerBlock = 1

	buf := ir.NewVar("A.shared", ir.Handle)
	n := ir.NewVar("n", ir.Int32)
	dynamic := &ir.Allocate{
		Buffer:  buf,
		DType:   ir.Float32,
		Extents: []ir.PrimExpr{n},
		Body:    nop(),
	}
	tree := producer(storageScope(buf, "shared", dynamic))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestSiblingRegionsVerifiedIndependently(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 256

	violating := producer(threadExtent(ir.ThreadIdxX, 512, nop()))
	compliant := producer(threadExtent(ir.ThreadIdxX, 128, nop()))

	// A failure in any region fails the whole verdict.
	assert.False(t, mustVerify(t, ir.Seq(violating, compliant), lim))
	assert.False(t, mustVerify(t, ir.Seq(compliant, violating), lim))

	// The compliant region passes in isolation: state did not leak.
	assert.True(t, mustVerify(t, compliant, lim))
}

func TestSiblingRegionsEachGetFullBudget(t *testing.T) {
	lim := Unlimited()
	lim.SharedMemoryPerBlock = 4096

	region := func(name string) ir.Stmt {
		buf := ir.NewVar(name, ir.Handle)
		return producer(
			storageScope(buf, "shared",
				alloc(buf, ir.Float32, 1024, nop())))
	}

	// Two regions, each allocating the entire shared budget. Budgets are
	// per-block, not global: both fit.
	tree := ir.Seq(region("A.shared"), region("B.shared"))
	assert.True(t, mustVerify(t, tree, lim))
}

func TestNestedProducerDoesNotResetRegionState(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 16

	// The inner producer marker is at nest depth 1; its entry must not
	// reset the thread product, and the duplicate threadIdx.x inside it
	// stays deduplicated.
	tree := producer(
		threadExtent(ir.ThreadIdxX, 16,
			producer(
				threadExtent(ir.ThreadIdxX, 16, nop()))))

	assert.True(t, mustVerify(t, tree, lim))
}

func TestPassThroughMarkerKeepsDepth(t *testing.T) {
	lim := Unlimited()
	lim.ThreadsPerBlock = 255

	// A non-producer marker does not change nest depth, so the two
	// producers inside it are separate depth-zero regions.
	inner := ir.Seq(
		producer(threadExtent(ir.ThreadIdxX, 128, nop())),
		producer(threadExtent(ir.ThreadIdxX, 128, nop())),
	)
	tree := &ir.ProducerConsumer{IsProducer: false, Body: inner}

	assert.True(t, mustVerify(t, tree, lim))
}

func TestThreadExtentTargetMustBeIterVar(t *testing.T) {
	tree := producer(&ir.AttrStmt{
		Key:   ir.AttrThreadExtent,
		Node:  ir.NewVar(ir.ThreadIdxX, ir.Int32), // plain var, not an iter var
		Value: ir.Int(32),
		Body:  nop(),
	})

	_, err := Verify(tree, Unlimited())
	require.Error(t, err)
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, ErrCodeBadThreadTarget, malformed.Code)
}

func TestThreadExtentValueMustBeConstant(t *testing.T) {
	tree := producer(&ir.AttrStmt{
		Key:   ir.AttrThreadExtent,
		Node:  ir.NewIterVar(ir.ThreadIdxX),
		Value: ir.NewVar("n", ir.Int32),
		Body:  nop(),
	})

	_, err := Verify(tree, Unlimited())
	require.Error(t, err)
	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, ErrCodeBadThreadExtent, malformed.Code)
}

func TestGPUCodeDriverResolvesConstraints(t *testing.T) {
	tree := producer(
		threadExtent(ir.ThreadIdxX, 32,
			threadExtent(ir.ThreadIdxY, 8, nop())))

	ok, err := GPUCode(tree, map[string]ir.PrimExpr{
		LimitThreadsPerBlock: ir.Int(256),
		LimitThreadX:         ir.Int(32),
		LimitThreadY:         ir.Int(16),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = GPUCode(tree, map[string]ir.PrimExpr{
		LimitThreadsPerBlock: ir.Int(255),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOmittedLimitsAreUnconstrained(t *testing.T) {
	buf := ir.NewVar("A.shared", ir.Handle)
	tree := producer(
		threadExtent(ir.ThreadIdxX, math.MaxInt32,
			storageScope(buf, "shared",
				alloc(buf, ir.Float64, 1<<30, nop()))))

	ok, err := GPUCode(tree, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

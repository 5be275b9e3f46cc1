// Package verify decides whether a statement tree respects a target
// accelerator's per-block hardware limits: threads per block, threads along
// each of the three block dimensions, and bytes of local and shared fast
// memory.
//
// The pass runs after scheduling and before device lowering. It is a pure
// accept/reject oracle: it never rewrites the tree, and a failed bound is
// reported as a false verdict, not an error. Errors are reserved for
// malformed input (a thread_extent annotation without an iter var target or
// constant extent, a configured limit that is not a constant integer) -
// conditions under which the tree or configuration violates the contract
// this pass assumes, and the enclosing compilation should abort.
//
// VERIFICATION MODEL:
//
// Kernel regions are delimited by ProducerConsumer markers. Only transitions
// into and out of nest depth zero are significant: each top-level region is
// verified independently with fresh accounting state, so sibling kernels may
// each use the full per-block budget. The overall verdict is the AND of
// every region's checks; every region is visited even after a failure.
//
// Within a region:
//   - thread_extent annotations over threadIdx.x/y/z multiply into the
//     block's thread product, each dimension counted once per region and
//     checked against its per-dimension bound on first sight;
//   - storage_scope annotations classify buffer variables as "local" or
//     "shared" (other scopes are ignored);
//   - allocations contribute size = constant element count * element bytes
//     to the counter of the scope their buffer was classified into before
//     the allocation is accounted. Unclassified allocations are untracked.
//
// Classification-before-accounting is a precondition the tree's lexical
// nesting provides naturally: annotation effects apply on entry, allocation
// sizes after recursing into children, under one depth-first traversal.
//
// One Verify call uses one fresh accountant; calls do not share state and
// independent verifications may run concurrently.
package verify

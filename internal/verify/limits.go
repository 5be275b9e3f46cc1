package verify

import (
	"math"

	"github.com/kernelgate/kernelgate/internal/ir"
)

// Well-known limit names. These six names and their units (bytes for the
// memory limits, thread counts for the rest) are the external contract of
// the pass.
const (
	LimitLocalMemoryPerBlock  = "max_local_memory_per_block"
	LimitSharedMemoryPerBlock = "max_shared_memory_per_block"
	LimitThreadsPerBlock      = "max_thread_per_block"
	LimitThreadX              = "max_thread_x"
	LimitThreadY              = "max_thread_y"
	LimitThreadZ              = "max_thread_z"
)

// LimitNames lists the well-known limit names in canonical order.
var LimitNames = []string{
	LimitLocalMemoryPerBlock,
	LimitSharedMemoryPerBlock,
	LimitThreadsPerBlock,
	LimitThreadX,
	LimitThreadY,
	LimitThreadZ,
}

// Limits holds the six resolved hardware bounds. A bound of math.MaxInt64
// means unconstrained.
type Limits struct {
	LocalMemoryPerBlock  int64
	SharedMemoryPerBlock int64
	ThreadsPerBlock      int64
	ThreadX              int64
	ThreadY              int64
	ThreadZ              int64
}

// Unlimited returns Limits with every bound unconstrained.
func Unlimited() Limits {
	return Limits{
		LocalMemoryPerBlock:  math.MaxInt64,
		SharedMemoryPerBlock: math.MaxInt64,
		ThreadsPerBlock:      math.MaxInt64,
		ThreadX:              math.MaxInt64,
		ThreadY:              math.MaxInt64,
		ThreadZ:              math.MaxInt64,
	}
}

// ResolveLimits maps a limit configuration to the six bounds. Names absent
// from the configuration resolve to math.MaxInt64. A present entry that is
// not a constant integer is a MalformedError.
func ResolveLimits(constraints map[string]ir.PrimExpr) (Limits, error) {
	lim := Unlimited()
	for _, entry := range []struct {
		name string
		dst  *int64
	}{
		{LimitLocalMemoryPerBlock, &lim.LocalMemoryPerBlock},
		{LimitSharedMemoryPerBlock, &lim.SharedMemoryPerBlock},
		{LimitThreadsPerBlock, &lim.ThreadsPerBlock},
		{LimitThreadX, &lim.ThreadX},
		{LimitThreadY, &lim.ThreadY},
		{LimitThreadZ, &lim.ThreadZ},
	} {
		expr, ok := constraints[entry.name]
		if !ok {
			continue
		}
		v, ok := ir.ConstInt(expr)
		if !ok {
			return Limits{}, badLimit(entry.name, expr)
		}
		*entry.dst = v
	}
	return lim, nil
}

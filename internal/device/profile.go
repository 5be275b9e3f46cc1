// Package device provides named hardware limit profiles for verification
// targets. A profile is a partial map of the well-known limit names to
// values; names a profile omits stay unconstrained.
package device

import (
	"fmt"
	"slices"

	"github.com/kernelgate/kernelgate/internal/ir"
	"github.com/kernelgate/kernelgate/internal/verify"
)

// Profile names a device and the per-block limits it enforces.
type Profile struct {
	Name   string           `yaml:"name"`
	Limits map[string]int64 `yaml:"limits"`
}

// Constraints renders the profile as the constant expression map the limit
// resolver consumes.
func (p Profile) Constraints() map[string]ir.PrimExpr {
	c := make(map[string]ir.PrimExpr, len(p.Limits))
	for name, v := range p.Limits {
		c[name] = &ir.IntImm{DType: ir.Int64, Value: v}
	}
	return c
}

// With returns a copy of the profile with the given limits overriding or
// extending the profile's own.
func (p Profile) With(overrides map[string]int64) Profile {
	merged := make(map[string]int64, len(p.Limits)+len(overrides))
	for k, v := range p.Limits {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return Profile{Name: p.Name, Limits: merged}
}

// Validate checks that every limit name is one of the well-known six and
// every value is non-negative.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	for name, v := range p.Limits {
		if !slices.Contains(verify.LimitNames, name) {
			return fmt.Errorf("profile %q: unknown limit %q", p.Name, name)
		}
		if v < 0 {
			return fmt.Errorf("profile %q: limit %q is negative", p.Name, name)
		}
	}
	return nil
}

// builtins are conservative per-block limits for common targets. They gate
// codegen output, so staying at or below what the weakest supported device
// of each target allows is the safe default; a device-specific profile file
// can raise them.
var builtins = []Profile{
	{
		Name: "cuda",
		Limits: map[string]int64{
			verify.LimitLocalMemoryPerBlock:  2097152,
			verify.LimitSharedMemoryPerBlock: 49152,
			verify.LimitThreadsPerBlock:      1024,
			verify.LimitThreadX:              1024,
			verify.LimitThreadY:              1024,
			verify.LimitThreadZ:              64,
		},
	},
	{
		Name: "opencl",
		Limits: map[string]int64{
			verify.LimitLocalMemoryPerBlock:  1048576,
			verify.LimitSharedMemoryPerBlock: 32768,
			verify.LimitThreadsPerBlock:      256,
			verify.LimitThreadX:              256,
			verify.LimitThreadY:              256,
			verify.LimitThreadZ:              256,
		},
	},
	{
		Name: "metal",
		Limits: map[string]int64{
			verify.LimitLocalMemoryPerBlock:  1048576,
			verify.LimitSharedMemoryPerBlock: 32768,
			verify.LimitThreadsPerBlock:      1024,
			verify.LimitThreadX:              1024,
			verify.LimitThreadY:              1024,
			verify.LimitThreadZ:              64,
		},
	},
	{
		Name: "vulkan",
		Limits: map[string]int64{
			verify.LimitLocalMemoryPerBlock:  1048576,
			verify.LimitSharedMemoryPerBlock: 32768,
			verify.LimitThreadsPerBlock:      1024,
			verify.LimitThreadX:              1024,
			verify.LimitThreadY:              1024,
			verify.LimitThreadZ:              64,
		},
	},
}

// Builtin returns the built-in profile with the given name.
func Builtin(name string) (Profile, bool) {
	for _, p := range builtins {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// BuiltinNames lists the built-in profile names in registration order.
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, p := range builtins {
		names[i] = p.Name
	}
	return names
}

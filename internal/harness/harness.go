package harness

import (
	"fmt"
	"os"

	"github.com/kernelgate/kernelgate/internal/device"
	"github.com/kernelgate/kernelgate/internal/ir"
	"github.com/kernelgate/kernelgate/internal/verify"
)

// Result holds the outcome of one scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Valid is the verdict the verifier returned.
	Valid bool `json:"valid"`

	// Pass reports whether the verdict matched the expectation.
	Pass bool `json:"pass"`

	// Device is the profile name, when the scenario used one.
	Device string `json:"device,omitempty"`

	// Limits are the effective limit values the verifier ran against.
	Limits map[string]int64 `json:"limits"`

	// IRDigest is the content digest of the verified tree.
	IRDigest string `json:"ir_digest"`
}

// Run executes one scenario: load the tree, resolve limits, verify,
// compare against the expectation. The returned error covers scenario
// infrastructure problems (unreadable tree, malformed IR or limits); an
// unexpected verdict is Pass=false, not an error.
func Run(scenario *Scenario) (*Result, error) {
	data, err := os.ReadFile(scenario.IR)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: reading tree: %w", scenario.Name, err)
	}
	tree, err := ir.DecodeStmt(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	limits, deviceName, err := effectiveLimits(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	profile := device.Profile{Name: deviceName, Limits: limits}
	valid, err := verify.GPUCode(tree, profile.Constraints())
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	digest, err := ir.ModuleDigest(tree)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	return &Result{
		Scenario: scenario.Name,
		Valid:    valid,
		Pass:     valid == scenario.Expect.Valid,
		Device:   deviceName,
		Limits:   limits,
		IRDigest: digest,
	}, nil
}

// effectiveLimits merges the scenario's device profile with its explicit
// limit overrides.
func effectiveLimits(scenario *Scenario) (map[string]int64, string, error) {
	profile := device.Profile{Name: "custom"}
	if scenario.Device != "" {
		p, ok := device.Builtin(scenario.Device)
		if !ok {
			return nil, "", fmt.Errorf("unknown device %q", scenario.Device)
		}
		profile = p
	}

	merged := profile.With(scenario.Limits)
	if err := merged.Validate(); err != nil {
		return nil, "", err
	}
	return merged.Limits, scenario.Device, nil
}

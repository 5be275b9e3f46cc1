package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/kernelgate/kernelgate/internal/ir"
)

// RunWithGolden executes a scenario and compares its report against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files pin the full report, digest included, so they catch both
// verdict regressions and accidental changes to tree serialization.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	reportJSON, err := ir.MarshalCanonical(reportValue(result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, reportJSON)

	return nil
}

// reportValue converts a Result to a generic map for canonical
// serialization. Limits render as int64 per the no-floats rule.
func reportValue(r *Result) map[string]any {
	limits := make(map[string]any, len(r.Limits))
	for k, v := range r.Limits {
		limits[k] = v
	}
	report := map[string]any{
		"scenario":  r.Scenario,
		"valid":     r.Valid,
		"pass":      r.Pass,
		"limits":    limits,
		"ir_digest": r.IRDigest,
	}
	if r.Device != "" {
		report["device"] = r.Device
	}
	return report
}

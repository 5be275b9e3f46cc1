package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kernelgate/kernelgate/internal/device"
	"github.com/kernelgate/kernelgate/internal/ir"
	"github.com/kernelgate/kernelgate/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Device      string   // built-in or CUE-defined target name
	ProfilesDir string   // directory of CUE device profiles
	ProfileFile string   // YAML profile file
	Limits      []string // name=value overrides
}

// VerifyReport holds the outcome of a single verification run.
type VerifyReport struct {
	Valid    bool             `json:"valid"`
	Device   string           `json:"device,omitempty"`
	Limits   map[string]int64 `json:"limits"`
	IRDigest string           `json:"ir_digest"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <tree.json>",
		Short: "Verify a kernel tree against device limits",
		Long: `Verify a compiled kernel statement tree against per-device resource limits.

Checks every kernel region in the tree: total threads per block,
per-dimension thread extents, and local and shared memory usage.
A limit left unset by the selected profile is unconstrained.

Exit codes:
  0 - Kernel fits within all configured limits
  1 - Kernel exceeds one or more limits
  2 - Command error (missing files, malformed tree, bad profile)

Examples:
  kernelgate verify kernel.json --device cuda
  kernelgate verify kernel.json --device a100 --profiles-dir ./profiles
  kernelgate verify kernel.json --profile edge.yaml
  kernelgate verify kernel.json --device cuda --limit max_thread_per_block=512`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Device, "device", "", "device target name (built-in or from --profiles-dir)")
	cmd.Flags().StringVar(&opts.ProfilesDir, "profiles-dir", "", "directory of CUE device profiles")
	cmd.Flags().StringVar(&opts.ProfileFile, "profile", "", "YAML device profile file")
	cmd.Flags().StringArrayVar(&opts.Limits, "limit", nil, "limit override as name=value (repeatable)")

	return cmd
}

func runVerify(opts *VerifyOptions, treePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		TraceID:   NewTraceID(),
	}

	data, err := os.ReadFile(treePath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("reading kernel tree: %v", err))
	}
	stmt, err := ir.DecodeStmt(data)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDecodeFailed, fmt.Sprintf("decoding kernel tree: %v", err))
	}

	profile, err := resolveProfile(opts, formatter)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCommandError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCommandError(formatter, ErrCodeBadProfile, err.Error())
	}

	formatter.VerboseLog("Verifying %s against %s (%d limit(s))", treePath, profile.Name, len(profile.Limits))

	valid, err := verify.GPUCode(stmt, profile.Constraints())
	if err != nil {
		return outputCommandError(formatter, ErrCodeMalformedIR, err.Error())
	}

	digest, err := ir.ModuleDigest(stmt)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	report := VerifyReport{
		Valid:    valid,
		Limits:   profile.Limits,
		IRDigest: digest,
	}
	if profile.Name != "custom" {
		report.Device = profile.Name
	}

	return outputVerifyReport(formatter, report)
}

// resolveProfile builds the effective device profile from flags.
//
// Precedence: --device (built-in, overridden by --profiles-dir entries on
// the same name), else --profile, else an empty unconstrained profile.
// --limit overrides apply last in every case.
func resolveProfile(opts *VerifyOptions, formatter *OutputFormatter) (device.Profile, error) {
	profiles := map[string]device.Profile{}
	for _, name := range device.BuiltinNames() {
		builtin, _ := device.Builtin(name)
		profiles[name] = builtin
	}
	if opts.ProfilesDir != "" {
		result, loadErrs := LoadProfiles(opts.ProfilesDir, LoadModeFailFast)
		if len(loadErrs) > 0 {
			return device.Profile{}, loadErrs[0]
		}
		formatter.VerboseLog("Loaded %d profile(s) from %d CUE file(s) in %s",
			len(result.Profiles), result.FileCount, opts.ProfilesDir)
		for _, p := range result.Profiles {
			profiles[p.Name] = p
		}
	}

	var profile device.Profile
	switch {
	case opts.Device != "":
		found, ok := profiles[opts.Device]
		if !ok {
			return device.Profile{}, &LoadError{
				Code:    ErrCodeUnknownDevice,
				Message: fmt.Sprintf("unknown device %q", opts.Device),
			}
		}
		profile = found
	case opts.ProfileFile != "":
		loaded, err := device.LoadFile(opts.ProfileFile)
		if err != nil {
			return device.Profile{}, err
		}
		profile = loaded
	default:
		profile = device.Profile{Name: "custom"}
	}

	overrides, err := parseLimitOverrides(opts.Limits)
	if err != nil {
		return device.Profile{}, err
	}
	profile = profile.With(overrides)
	if err := profile.Validate(); err != nil {
		return device.Profile{}, err
	}
	return profile, nil
}

// parseLimitOverrides parses repeated --limit name=value flags.
func parseLimitOverrides(pairs []string) (map[string]int64, error) {
	overrides := make(map[string]int64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, &LoadError{
				Code:    ErrCodeBadOverride,
				Message: fmt.Sprintf("invalid --limit %q: expected name=value", pair),
			}
		}
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeBadOverride,
				Message: fmt.Sprintf("invalid --limit %q: %v", pair, err),
			}
		}
		overrides[name] = value
	}
	return overrides, nil
}

// outputVerifyReport renders the report and maps the verdict to an exit code.
func outputVerifyReport(formatter *OutputFormatter, report VerifyReport) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status:  "ok",
			Data:    report,
			TraceID: formatter.TraceID,
		}
		if !report.Valid {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_LIMIT_EXCEEDED",
				Message: "kernel exceeds device limits",
			}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		if !report.Valid {
			return NewExitError(ExitFailure, "kernel exceeds device limits")
		}
		return nil
	}

	// Text format
	target := report.Device
	if target == "" {
		target = "configured"
	}
	for _, name := range sortedLimitNames(report.Limits) {
		formatter.VerboseLog("  %s = %d", name, report.Limits[name])
	}
	if report.Valid {
		fmt.Fprintf(formatter.Writer, "✓ kernel fits within %s limits\n", target)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✗ kernel exceeds %s limits\n", target)
	return NewExitError(ExitFailure, "kernel exceeds device limits")
}

// outputCommandError reports an input/setup problem (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// sortedLimitNames returns limit names in stable order for text output.
func sortedLimitNames(limits map[string]int64) []string {
	names := make([]string, 0, len(limits))
	for name := range limits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

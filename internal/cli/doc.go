// Package cli implements the kernelgate command-line interface.
//
// Commands follow a shared structure: a cobra command with RunE, an
// OutputFormatter that renders either human-readable text or a JSON
// envelope, and ExitError for meaningful process exit codes (0 success,
// 1 verification/scenario failure, 2 command error).
//
// Device profiles come from three places, in increasing precedence:
// built-in targets, CUE profile directories (--profiles-dir), and YAML
// profile files or --limit overrides on the command line.
package cli

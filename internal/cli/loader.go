package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/kernelgate/kernelgate/internal/device"
)

// LoadMode controls how errors are handled during profile loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading device profiles from a directory.
type LoadResult struct {
	Profiles  []device.Profile
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during profile loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProfiles loads device profiles from a directory of CUE files.
//
// Profiles live under the top-level "device" struct, one field per target:
//
//	device: a100: {
//	    base: "cuda"
//	    limits: max_shared_memory_per_block: 102400
//	}
//
// The optional base names a built-in target whose limits the profile
// starts from; entries under limits override it.
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadProfiles(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("profiles directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing profiles directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	// Check for load errors
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	// Build value from instance
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	devicesVal := value.LookupPath(cue.ParsePath("device"))
	if !devicesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no device definitions found in profiles"}}
	}

	iter, iterErr := devicesVal.Fields()
	if iterErr != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating devices: %v", iterErr)}}
	}
	for iter.Next() {
		profile, compileErr := compileProfile(iter.Label(), iter.Value())
		if compileErr != nil {
			errs = append(errs, compileErr)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Profiles = append(result.Profiles, profile)
	}

	if len(result.Profiles) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no device definitions found in profiles"})
	}

	return result, errs
}

// compileProfile converts a single device field into a validated Profile.
func compileProfile(name string, v cue.Value) (device.Profile, error) {
	profile := device.Profile{Name: name}

	baseVal := v.LookupPath(cue.ParsePath("base"))
	if baseVal.Exists() {
		base, err := baseVal.String()
		if err != nil {
			return device.Profile{}, &LoadError{
				Code:    ErrCodeBuildFailed,
				Message: fmt.Sprintf("device %s: base must be a string: %v", name, err),
				Pos:     baseVal.Pos(),
			}
		}
		builtin, ok := device.Builtin(base)
		if !ok {
			return device.Profile{}, &LoadError{
				Code:    ErrCodeBadProfile,
				Message: fmt.Sprintf("device %s: unknown base target %q", name, base),
				Pos:     baseVal.Pos(),
			}
		}
		profile = builtin
		profile.Name = name
	}

	limitsVal := v.LookupPath(cue.ParsePath("limits"))
	if limitsVal.Exists() {
		overrides := map[string]int64{}
		iter, err := limitsVal.Fields()
		if err != nil {
			return device.Profile{}, &LoadError{
				Code:    ErrCodeBuildFailed,
				Message: fmt.Sprintf("device %s: iterating limits: %v", name, err),
				Pos:     limitsVal.Pos(),
			}
		}
		for iter.Next() {
			value, err := iter.Value().Int64()
			if err != nil {
				return device.Profile{}, &LoadError{
					Code:    ErrCodeBuildFailed,
					Message: fmt.Sprintf("device %s: limit %s must be an integer: %v", name, iter.Label(), err),
					Pos:     iter.Value().Pos(),
				}
			}
			overrides[iter.Label()] = value
		}
		profile = profile.With(overrides)
	}

	if err := profile.Validate(); err != nil {
		return device.Profile{}, &LoadError{
			Code:    ErrCodeBadProfile,
			Message: fmt.Sprintf("device %s: %v", name, err),
			Pos:     v.Pos(),
		}
	}
	return profile, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeDecodeFailed = "E007" // Statement tree decode failed

	// Verification errors
	ErrCodeUnknownDevice = "E101" // Device name not found
	ErrCodeBadOverride   = "E102" // Malformed --limit override
	ErrCodeBadProfile    = "E103" // Profile failed validation
	ErrCodeMalformedIR   = "E104" // Thread target or extent malformed
)

package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kernelgate/kernelgate/internal/device"
)

// DevicesOptions holds flags for the devices command.
type DevicesOptions struct {
	*RootOptions
	ProfilesDir string
}

// DeviceInfo describes a single selectable device target.
type DeviceInfo struct {
	Name   string           `json:"name"`
	Source string           `json:"source"` // "builtin" or "profile"
	Limits map[string]int64 `json:"limits"`
}

// DeviceList holds the devices command payload.
type DeviceList struct {
	Devices []DeviceInfo `json:"devices"`
}

// NewDevicesCommand creates the devices command.
func NewDevicesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DevicesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List known device targets and their limits",
		Long: `List the device targets accepted by verify --device.

Built-in targets are always shown. With --profiles-dir, CUE-defined
profiles are added; a profile with a built-in's name replaces it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ProfilesDir, "profiles-dir", "", "directory of CUE device profiles")

	return cmd
}

func runDevices(opts *DevicesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		TraceID:   NewTraceID(),
	}

	byName := map[string]DeviceInfo{}
	for _, name := range device.BuiltinNames() {
		builtin, _ := device.Builtin(name)
		byName[name] = DeviceInfo{Name: name, Source: "builtin", Limits: builtin.Limits}
	}

	if opts.ProfilesDir != "" {
		result, loadErrs := LoadProfiles(opts.ProfilesDir, LoadModeCollectAll)
		if len(loadErrs) > 0 {
			var loadErr *LoadError
			if errors.As(loadErrs[0], &loadErr) {
				return outputCommandError(formatter, loadErr.Code, loadErr.Message)
			}
			return outputCommandError(formatter, ErrCodeGeneric, loadErrs[0].Error())
		}
		formatter.VerboseLog("Loaded %d profile(s) from %s", len(result.Profiles), opts.ProfilesDir)
		for _, p := range result.Profiles {
			byName[p.Name] = DeviceInfo{Name: p.Name, Source: "profile", Limits: p.Limits}
		}
	}

	list := DeviceList{Devices: make([]DeviceInfo, 0, len(byName))}
	for _, info := range byName {
		list.Devices = append(list.Devices, info)
	}
	sort.Slice(list.Devices, func(i, j int) bool {
		return list.Devices[i].Name < list.Devices[j].Name
	})

	if formatter.Format == "json" {
		return formatter.Success(list)
	}

	for _, info := range list.Devices {
		fmt.Fprintf(formatter.Writer, "%s (%s)\n", info.Name, info.Source)
		for _, name := range sortedLimitNames(info.Limits) {
			fmt.Fprintf(formatter.Writer, "  %s = %d\n", name, info.Limits[name])
		}
	}
	return nil
}

package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kernelgate/kernelgate/internal/device"
)

func TestDevicesCommandListsBuiltins(t *testing.T) {
	out, err := executeCommand(t, "devices", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	var list DeviceList
	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &list))

	byName := map[string]DeviceInfo{}
	for _, info := range list.Devices {
		byName[info.Name] = info
	}
	for _, name := range device.BuiltinNames() {
		info, ok := byName[name]
		require.True(t, ok, "builtin %s should be listed", name)
		assert.Equal(t, "builtin", info.Source)
		assert.NotEmpty(t, info.Limits)
	}
}

func TestDevicesCommandTextOutput(t *testing.T) {
	out, err := executeCommand(t, "devices")
	require.NoError(t, err)

	assert.Contains(t, out, "cuda (builtin)")
	assert.Contains(t, out, "max_thread_per_block = 1024")
}

func TestDevicesCommandProfilesDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "profiles.cue", `package profiles

device: cuda: {
	base: "cuda"
	limits: max_thread_per_block: 512
}
device: a100: {
	base: "cuda"
	limits: max_shared_memory_per_block: 102400
}
`)

	out, err := executeCommand(t, "devices", "--profiles-dir", dir, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	var list DeviceList
	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &list))

	byName := map[string]DeviceInfo{}
	for _, info := range list.Devices {
		byName[info.Name] = info
	}

	assert.Equal(t, "profile", byName["cuda"].Source)
	assert.Equal(t, int64(512), byName["cuda"].Limits["max_thread_per_block"])
	assert.Equal(t, "profile", byName["a100"].Source)
}

func TestDevicesCommandBadProfilesDir(t *testing.T) {
	out, err := executeCommand(t, "devices", "--profiles-dir", "/nonexistent")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

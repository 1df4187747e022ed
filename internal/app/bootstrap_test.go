package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const testCatalog = `# boards
winusb,Board,2341,0041,{G1}
libusb,DFU,03eb,2ff4,{G2}
`

const testSnapshot = `devices:
  - vid: 0x2341
    pid: 0x0041
    device_id: "1-1"
`

type recordedCall struct {
	name string
	args []string
}

func newTestFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "drivers.txt", []byte(testCatalog), 0o644))
	require.NoError(t, afero.WriteFile(fs, "devices.yaml", []byte(testSnapshot), 0o644))
	return fs
}

func TestBuildApplicationFromViper_EndToEnd(t *testing.T) {
	fs := newTestFS(t)
	var calls []recordedCall
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, recordedCall{name: name, args: args})
		return nil, nil
	}

	v := viper.New()
	v.Set(DevicesOverrideKey, "snapshot=devices.yaml")
	v.Set("settings.reporter", "json")
	v.Set("installer.min_interval", "1ms")

	var report, logs bytes.Buffer
	application, err := BuildApplicationFromViper(context.Background(), v,
		WithFS(fs), WithOutput(&report), WithLogOutput(&logs), WithCommandRunner(runner))
	require.NoError(t, err)
	assert.Equal(t, "snapshot", application.Config.Devices.Type)
	assert.Equal(t, "devices.yaml", application.Config.Devices.SnapshotPath)

	outcome, err := application.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.ActionInstalled, domain.ActionSkippedNoDevice}, outcome.Actions())
	assert.Equal(t, 0, outcome.ExitCode())

	require.Len(t, calls, 1)
	assert.Equal(t, "pnputil", calls[0].name)
	assert.Equal(t, []string{"/add-driver", "usb_driver/usb_device.inf", "/install"}, calls[0].args)

	exists, err := afero.Exists(fs, "usb_driver/usb_device.inf")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Contains(t, report.String(), `"action": "INSTALLED"`)
	assert.Contains(t, logs.String(), "Extracting driver files for Board...")
}

func TestBuildApplicationFromViper_Silent(t *testing.T) {
	v := viper.New()
	v.Set(DevicesOverrideKey, "snapshot=devices.yaml")
	v.Set("installer.type", "dryrun")
	v.Set("settings.silent", true)

	var report, logs bytes.Buffer
	application, err := BuildApplicationFromViper(context.Background(), v,
		WithFS(newTestFS(t)), WithOutput(&report), WithLogOutput(&logs))
	require.NoError(t, err)

	outcome, err := application.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.ExitCode())
	assert.Empty(t, report.String())
	assert.Empty(t, logs.String())
}

func TestBuildApplicationFromViper_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		set  map[string]any
		code errors.Code
	}{
		{name: "Unknown reporter", set: map[string]any{"settings.reporter": "xml"}, code: errors.CodeConfigValidation},
		{name: "Unknown installer", set: map[string]any{"installer.type": "magic"}, code: errors.CodeConfigValidation},
		{name: "Snapshot without path", set: map[string]any{"devices.type": "snapshot"}, code: errors.CodeConfigValidation},
		{name: "Bad INF name", set: map[string]any{"driver.inf_name": "driver.txt"}, code: errors.CodeConfigValidation},
		{name: "Bad interval", set: map[string]any{"installer.min_interval": "soon"}, code: errors.CodeConfigParseError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tc.set {
				v.Set(k, val)
			}
			_, err := BuildApplicationFromViper(context.Background(), v, WithFS(newTestFS(t)), WithLogOutput(&bytes.Buffer{}))
			require.Error(t, err)
			assert.Equal(t, tc.code, errors.GetCode(err))
			_, _, userFacing := errors.GetUserFacingMessage(err)
			assert.True(t, userFacing)
		})
	}
}

func TestParseDevicesOverride(t *testing.T) {
	testCases := []struct {
		in   string
		kind string
		path string
	}{
		{"", "", ""},
		{"sysfs", "sysfs", ""},
		{" snapshot = devs.json ", "snapshot", "devs.json"},
		{"=devs.yaml", "snapshot", "devs.yaml"},
	}
	for _, tc := range testCases {
		kind, path := parseDevicesOverride(tc.in)
		assert.Equal(t, tc.kind, kind, tc.in)
		assert.Equal(t, tc.path, path, tc.in)
	}
}

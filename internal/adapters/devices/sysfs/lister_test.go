package sysfs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/devices/sysfs"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
	"github.com/olusolaa/usb-driver-reconciler/internal/log"
)

const root = "/sys/bus/usb/devices"

func writeAttrs(t *testing.T, fs afero.Fs, dir string, attrs map[string]string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Join(root, dir), 0o755))
	for name, value := range attrs {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(root, dir, name), []byte(value), 0o644))
	}
}

func newTree(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()

	// Single-interface board with a CDC driver bound.
	writeAttrs(t, fs, "1-1", map[string]string{"idVendor": "2341\n", "idProduct": "0041\n", "bDeviceClass": "02\n", "product": "  Arduino Uno \n"})
	writeAttrs(t, fs, "1-1/1-1:1.0", map[string]string{"bInterfaceNumber": "00\n", "uevent": "DEVTYPE=usb_interface\nDRIVER=cdc_acm\nINTERFACE=2/2/1\n"})
	// Sysfs also exposes interfaces at the top level.
	writeAttrs(t, fs, "1-1:1.0", map[string]string{"bInterfaceNumber": "00\n"})

	// Composite keyboard: interface 0 bound, interface 1 free.
	writeAttrs(t, fs, "1-2", map[string]string{"idVendor": "feed\n", "idProduct": "6060\n", "bDeviceClass": "00\n", "product": "Planck\n"})
	writeAttrs(t, fs, "1-2/1-2:1.1", map[string]string{"bInterfaceNumber": "01\n", "uevent": "DEVTYPE=usb_interface\n"})
	writeAttrs(t, fs, "1-2/1-2:1.0", map[string]string{"bInterfaceNumber": "00\n", "uevent": "DRIVER=usbhid\n"})

	// External hub.
	writeAttrs(t, fs, "1-3", map[string]string{"idVendor": "05e3\n", "idProduct": "0610\n", "bDeviceClass": "09\n"})

	// Root hub.
	writeAttrs(t, fs, "usb1", map[string]string{"idVendor": "1d6b\n", "idProduct": "0002\n", "bDeviceClass": "09\n"})

	// Unreadable device.
	writeAttrs(t, fs, "1-4", map[string]string{"idProduct": "0001\n"})
	return fs
}

func TestLister_ListDevices(t *testing.T) {
	ctx := context.Background()
	lister := sysfs.NewLister(sysfs.Config{Root: root, Workers: 2}, newTree(t), log.Discard())
	assert.Equal(t, sysfs.ListerTypeSysfs, lister.Type())

	t.Run("All devices without hubs", func(t *testing.T) {
		devices, err := lister.ListDevices(ctx, domain.ListOptions{ListAll: true, TrimWhitespaces: true})
		require.NoError(t, err)

		expected := []domain.AttachedDevice{
			{VendorID: 0x2341, ProductID: 0x0041, InterfaceNumber: 0, HardwareID: `USB\VID_2341&PID_0041`, DeviceInstanceID: "1-1:1.0", BoundDriver: "cdc_acm", Description: "Arduino Uno"},
			{VendorID: 0xfeed, ProductID: 0x6060, InterfaceNumber: 0, HardwareID: `USB\VID_FEED&PID_6060&MI_00`, DeviceInstanceID: "1-2:1.0", BoundDriver: "usbhid", Description: "Planck"},
			{VendorID: 0xfeed, ProductID: 0x6060, InterfaceNumber: 1, HardwareID: `USB\VID_FEED&PID_6060&MI_01`, DeviceInstanceID: "1-2:1.1", Description: "Planck"},
		}
		if diff := cmp.Diff(expected, devices); diff != "" {
			t.Errorf("devices mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Driverless only", func(t *testing.T) {
		devices, err := lister.ListDevices(ctx, domain.ListOptions{})
		require.NoError(t, err)
		require.Len(t, devices, 1)
		assert.Equal(t, "1-2:1.1", devices[0].DeviceInstanceID)
	})

	t.Run("Untrimmed description", func(t *testing.T) {
		devices, err := lister.ListDevices(ctx, domain.ListOptions{ListAll: true})
		require.NoError(t, err)
		require.NotEmpty(t, devices)
		assert.Equal(t, "  Arduino Uno ", devices[0].Description)
	})

	t.Run("Hubs included", func(t *testing.T) {
		devices, err := lister.ListDevices(ctx, domain.ListOptions{ListAll: true, ListHubs: true})
		require.NoError(t, err)
		require.Len(t, devices, 5)
		assert.Equal(t, "1-3", devices[3].DeviceInstanceID)
		assert.True(t, devices[3].IsHub)
		assert.Equal(t, "usb1", devices[4].DeviceInstanceID)
	})
}

func TestLister_MissingRoot(t *testing.T) {
	lister := sysfs.NewLister(sysfs.Config{Root: "/nope"}, afero.NewMemMapFs(), log.Discard())
	_, err := lister.ListDevices(context.Background(), domain.ListOptions{ListAll: true})
	require.Error(t, err)
	assert.Equal(t, errors.CodeEnumerationFailed, errors.GetCode(err))
}

func TestLister_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lister := sysfs.NewLister(sysfs.Config{Root: root}, newTree(t), log.Discard())
	_, err := lister.ListDevices(ctx, domain.ListOptions{ListAll: true})
	assert.ErrorIs(t, err, context.Canceled)
}

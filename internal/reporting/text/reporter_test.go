package text_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	apperrors "github.com/olusolaa/usb-driver-reconciler/internal/errors"
	"github.com/olusolaa/usb-driver-reconciler/internal/log"
	"github.com/olusolaa/usb-driver-reconciler/internal/reporting/text"
)

func sampleOutcome() domain.RunOutcome {
	board := domain.DriverSpec{Type: domain.DriverWinUSB, Description: "Board", VendorID: 0x2341, ProductID: 0x0041, Line: 1}
	dfu := domain.DriverSpec{Type: domain.DriverLibUSB0, Description: "DFU", VendorID: 0x03eb, ProductID: 0x2ff4, Line: 2}
	bound := &domain.AttachedDevice{VendorID: 0x2341, ProductID: 0x0041, HardwareID: `USB\VID_2341&PID_0041`, BoundDriver: "usbser"}
	free := &domain.AttachedDevice{VendorID: 0x2341, ProductID: 0x0041, HardwareID: `USB\VID_2341&PID_0041&MI_01`}

	var o domain.RunOutcome
	o.Add(domain.SpecResult{Spec: board, Device: bound, Action: domain.ActionSkippedExistingDriver})
	o.Add(domain.SpecResult{Spec: board, Device: free, Action: domain.ActionInstalled})
	o.Add(domain.SpecResult{Spec: dfu, Action: domain.ActionSkippedNoDevice})
	o.Add(domain.SpecResult{Spec: dfu, Action: domain.ActionFailed,
		Err: apperrors.NewUserFacing(apperrors.CodeInstallFailed, "failed to install libusb0 driver for DFU", "")})
	return o
}

func TestReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r, err := text.NewReporter(text.Config{NoColor: true}, &buf, log.Discard())
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), sampleOutcome()))
	out := buf.String()

	for _, want := range []string{
		"Driver Reconciliation Report",
		"[SKIPPED]",
		"Device already uses usbser.",
		`USB\VID_2341&PID_0041&MI_01`,
		"[INSTALLED]",
		"[NO DEVICE]",
		"[FAILED]",
		"failed to install libusb0 driver for DFU",
		"Total Entries:",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Halted:")
	assert.Regexp(t, `Failed:\s+1`, out)
	assert.Regexp(t, `Installed:\s+1`, out)
}

func TestReporter_Halted(t *testing.T) {
	var buf bytes.Buffer
	r, err := text.NewReporter(text.Config{NoColor: true}, &buf, log.Discard())
	require.NoError(t, err)

	o := domain.RunOutcome{}
	o.Halt(stderrors.New("catalog unreadable"))
	require.NoError(t, r.Report(context.Background(), o))
	assert.Contains(t, buf.String(), "Halted:")
	assert.Contains(t, buf.String(), "catalog unreadable")
}

func TestReporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	r, err := text.NewReporter(text.Config{}, &buf, log.Discard())
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background(), domain.RunOutcome{}))
	assert.Equal(t, "No driver catalog entries processed.\n", buf.String())
}

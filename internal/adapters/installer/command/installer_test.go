package command_test

import (
	"context"
	stderrors "errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/installer/command"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
	"github.com/olusolaa/usb-driver-reconciler/internal/log"
)

type call struct {
	name string
	args []string
}

type recorder struct {
	calls []call
	out   []byte
	err   error
}

func (r *recorder) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	return r.out, r.err
}

var spec = domain.DriverSpec{
	Type:                domain.DriverLibUSBK,
	Description:         "Caterina",
	VendorID:            0x2341,
	ProductID:           0x0036,
	DeviceInterfaceGUID: "{G}",
}

func TestInstaller_Install(t *testing.T) {
	rec := &recorder{}
	cfg := command.Config{
		Path: "installer",
		Args: []string{"--inf", "{{.InfPath}}", "--hwid", "{{.HardwareID}}", "--dev", "{{.DeviceID}}", "--type", "{{.DriverType}}"},
	}
	inst, err := command.NewInstaller(cfg, "usb_device.inf", log.Discard(), command.WithRunner(rec.run))
	require.NoError(t, err)
	assert.Equal(t, command.InstallerTypeCommand, inst.Type())

	t.Run("Bound to a device", func(t *testing.T) {
		rec.calls = nil
		device := &domain.DeviceIdentity{HardwareID: `USB\VID_2341&PID_0036&MI_00`, DeviceInstanceID: "1-1:1.0"}
		require.NoError(t, inst.Install(context.Background(), spec, device, "usb_driver"))
		require.Len(t, rec.calls, 1)
		assert.Equal(t, "installer", rec.calls[0].name)
		assert.Equal(t, []string{"--inf", "usb_driver/usb_device.inf", "--hwid", `USB\VID_2341&PID_0036&MI_00`, "--dev", "1-1:1.0", "--type", "libusbK"}, rec.calls[0].args)
	})

	t.Run("Unbound", func(t *testing.T) {
		rec.calls = nil
		require.NoError(t, inst.Install(context.Background(), spec, nil, "usb_driver"))
		require.Len(t, rec.calls, 1)
		assert.Equal(t, []string{"--inf", "usb_driver/usb_device.inf", "--hwid", `USB\VID_2341&PID_0036`, "--dev", "", "--type", "libusbK"}, rec.calls[0].args)
	})
}

func TestInstaller_InstallFailure(t *testing.T) {
	rec := &recorder{out: []byte("access denied\n"), err: stderrors.New("boom")}
	inst, err := command.NewInstaller(command.DefaultConfig(), "usb_device.inf", log.Discard(), command.WithRunner(rec.run))
	require.NoError(t, err)

	err = inst.Install(context.Background(), spec, nil, "usb_driver")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInstallFailed, errors.GetCode(err))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.InternalDetails, "exit_code=-1")
	assert.Contains(t, appErr.InternalDetails, "access denied")
}

func TestInstaller_ExitCode(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	inst, err := command.NewInstaller(command.Config{Path: sh, Args: []string{"-c", "echo {{.Description}}; exit 3"}}, "x.inf", log.Discard())
	require.NoError(t, err)

	err = inst.Install(context.Background(), spec, nil, t.TempDir())
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.InternalDetails, "exit_code=3")
	assert.Contains(t, appErr.InternalDetails, "Caterina")
}

func TestInstaller_Timeout(t *testing.T) {
	blocking := func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	inst, err := command.NewInstaller(command.Config{Path: "slow", Timeout: 10 * time.Millisecond}, "x.inf", log.Discard(), command.WithRunner(blocking))
	require.NoError(t, err)

	err = inst.Install(context.Background(), spec, nil, "d")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInstallFailed, errors.GetCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInstaller_InstallCertificate(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		rec := &recorder{}
		inst, err := command.NewInstaller(command.DefaultConfig(), "usb_device.inf", log.Discard(), command.WithRunner(rec.run))
		require.NoError(t, err)

		require.NoError(t, inst.InstallCertificate(context.Background(), "usb_driver.cer"))
		require.Len(t, rec.calls, 1)
		assert.Equal(t, "certutil", rec.calls[0].name)
		assert.Equal(t, []string{"-addstore", "TrustedPublisher", "usb_driver.cer"}, rec.calls[0].args)
	})

	t.Run("Failure", func(t *testing.T) {
		rec := &recorder{err: stderrors.New("denied")}
		inst, err := command.NewInstaller(command.DefaultConfig(), "usb_device.inf", log.Discard(), command.WithRunner(rec.run))
		require.NoError(t, err)
		assert.Equal(t, errors.CodeCertInstallFailed, errors.GetCode(inst.InstallCertificate(context.Background(), "c.cer")))
	})

	t.Run("Not configured", func(t *testing.T) {
		rec := &recorder{}
		inst, err := command.NewInstaller(command.Config{Path: "installer"}, "usb_device.inf", log.Discard(), command.WithRunner(rec.run))
		require.NoError(t, err)
		assert.NoError(t, inst.InstallCertificate(context.Background(), "c.cer"))
		assert.Empty(t, rec.calls)
	})
}

func TestNewInstaller_Validation(t *testing.T) {
	_, err := command.NewInstaller(command.Config{}, "x.inf", log.Discard())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))

	_, err = command.NewInstaller(command.Config{Path: "p"}, "", log.Discard())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))

	_, err = command.NewInstaller(command.Config{Path: "p", Args: []string{"{{.InfPath"}}, "x.inf", log.Discard())
	require.Error(t, err)
	_, _, userFacing := errors.GetUserFacingMessage(err)
	assert.True(t, userFacing)
}

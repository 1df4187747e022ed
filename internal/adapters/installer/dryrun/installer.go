// Package dryrun provides an installer that logs what it would do and records the
// calls it received.
package dryrun

import (
	"context"
	"sync"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
)

const InstallerTypeDryRun = "dryrun"

// Call is one recorded install request. Device is empty for unbound installs.
type Call struct {
	Spec     domain.DriverSpec
	Device   domain.DeviceIdentity
	Bound    bool
	DestDir  string
	CertName string
}

type Installer struct {
	mu     sync.Mutex
	calls  []Call
	logger ports.Logger
}

func NewInstaller(logger ports.Logger) *Installer {
	return &Installer{
		logger: logger.WithFields(map[string]any{"component": "installer", "type": InstallerTypeDryRun}),
	}
}

func (i *Installer) Type() string { return InstallerTypeDryRun }

func (i *Installer) Install(ctx context.Context, spec domain.DriverSpec, device *domain.DeviceIdentity, destDir string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	call := Call{Spec: spec, DestDir: destDir}
	if device != nil {
		call.Device = *device
		call.Bound = true
		i.logger.Infof(ctx, "Would install %s driver from %s for %s (%s)", spec.Type, destDir, device.HardwareID, device.DeviceInstanceID)
	} else {
		i.logger.Infof(ctx, "Would install %s driver from %s for %s with no attached device", spec.Type, destDir, spec.HardwareID())
	}
	i.record(call)
	return nil
}

func (i *Installer) InstallCertificate(ctx context.Context, certName string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	i.logger.Infof(ctx, "Would trust certificate %s", certName)
	i.record(Call{CertName: certName})
	return nil
}

func (i *Installer) record(c Call) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = append(i.calls, c)
}

// Calls returns a copy of the recorded calls in order.
func (i *Installer) Calls() []Call {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Call, len(i.calls))
	copy(out, i.calls)
	return out
}

package ports

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
)

// Preparer extracts the driver files for a spec into destDir.
//
//go:generate mockery --name Preparer --output ./mocks --outpkg mocks --case underscore
type Preparer interface {
	Prepare(ctx context.Context, spec domain.DriverSpec, destDir string) error
}

//go:generate mockery --name CertificateInstaller --output ./mocks --outpkg mocks --case underscore
type CertificateInstaller interface {
	InstallCertificate(ctx context.Context, certName string) error
}

// Installer installs a prepared driver. A nil device means the driver is staged
// without binding it to an attached device.
//
//go:generate mockery --name Installer --output ./mocks --outpkg mocks --case underscore
type Installer interface {
	Type() string
	Install(ctx context.Context, spec domain.DriverSpec, device *domain.DeviceIdentity, destDir string) error
}

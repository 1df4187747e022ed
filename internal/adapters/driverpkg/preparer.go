// Package driverpkg stages driver packages on disk: an INF describing the device
// and a JSON manifest recording which spec produced it.
package driverpkg

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const (
	DefaultExtractDir = "usb_driver"
	DefaultInfName    = "usb_device.inf"
	ManifestName      = "manifest.json"

	dirPerm  = 0o755
	filePerm = 0o644
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	InfName string `yaml:"inf_name" mapstructure:"inf_name" validate:"required,endswith=.inf"`
}

// Manifest is written next to the INF.
type Manifest struct {
	InfName     string `json:"inf_name"`
	DriverType  string `json:"driver_type"`
	Service     string `json:"service"`
	Description string `json:"description"`
	HardwareID  string `json:"hardware_id"`
	GUID        string `json:"device_interface_guid"`
	CatalogLine int    `json:"catalog_line"`
	PreparedAt  string `json:"prepared_at"`
}

type Preparer struct {
	fs      afero.Fs
	infName string
	now     func() time.Time
	logger  ports.Logger
}

type Option func(*Preparer)

// WithClock overrides the time stamped into the INF and manifest.
func WithClock(now func() time.Time) Option {
	return func(p *Preparer) { p.now = now }
}

func NewPreparer(cfg Config, fs afero.Fs, logger ports.Logger, opts ...Option) *Preparer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	infName := cfg.InfName
	if infName == "" {
		infName = DefaultInfName
	}
	p := &Preparer{
		fs:      fs,
		infName: infName,
		now:     time.Now,
		logger:  logger.WithFields(map[string]any{"component": "preparer"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type infData struct {
	Description string
	HardwareID  string
	GUID        string
	Service     string
	DriverType  string
	Date        string
	Line        int
}

var infTemplate = template.Must(template.New("inf").Parse(`; {{.Description}} ({{.DriverType}}) generated from catalog line {{.Line}}
[Version]
Signature   = "$Windows NT$"
Class       = "Universal Serial Bus devices"
ClassGuid   = {88bae032-5a81-49f0-bc3d-a4ff138216d6}
Provider    = "usb-driver-reconciler"
DriverVer   = {{.Date}},1.0.0.0

[Manufacturer]
%ManufacturerName% = Standard,NTamd64,NTx86

[Standard.NTamd64]
%DeviceName% = USB_Install, {{.HardwareID}}

[Standard.NTx86]
%DeviceName% = USB_Install, {{.HardwareID}}

[USB_Install]
Include = {{if eq .Service "WinUSB"}}winusb.inf{{else}}{{.Service}}.inf{{end}}
Needs   = {{if eq .Service "WinUSB"}}WINUSB.NT{{else}}{{.Service}}.NT{{end}}

[USB_Install.Services]
AddService = {{.Service}},0x00000002,Service_Install

[Service_Install]
ServiceType   = 1
StartType     = 3
ErrorControl  = 1

[USB_Install.HW]
AddReg = Dev_AddReg

[Dev_AddReg]
HKR,,DeviceInterfaceGUIDs,0x10000,"{{.GUID}}"

[Strings]
ManufacturerName = "usb-driver-reconciler"
DeviceName       = "{{.Description}}"
`))

func serviceName(t domain.DriverType) string {
	switch t {
	case domain.DriverLibUSB0:
		return "libusb0"
	case domain.DriverLibUSBK:
		return "libusbK"
	default:
		return "WinUSB"
	}
}

// Prepare writes destDir/<inf_name> and destDir/manifest.json, replacing files left by
// an earlier spec.
func (p *Preparer) Prepare(ctx context.Context, spec domain.DriverSpec, destDir string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if destDir == "" {
		return errors.New(errors.CodeConfigValidation, "extraction directory cannot be empty")
	}

	now := p.now().UTC()
	data := infData{
		Description: escapeINF(spec.Description),
		HardwareID:  spec.HardwareID(),
		GUID:        spec.DeviceInterfaceGUID,
		Service:     serviceName(spec.Type),
		DriverType:  spec.Type.String(),
		Date:        now.Format("01/02/2006"),
		Line:        spec.Line,
	}

	var inf bytes.Buffer
	if err := infTemplate.Execute(&inf, data); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to render INF")
	}

	if err := p.fs.MkdirAll(destDir, dirPerm); err != nil {
		return errors.Wrap(err, errors.CodePrepareFailed, fmt.Sprintf("failed to create %s", destDir))
	}

	infPath := filepath.Join(destDir, p.infName)
	if err := afero.WriteFile(p.fs, infPath, inf.Bytes(), filePerm); err != nil {
		return errors.Wrap(err, errors.CodePrepareFailed, fmt.Sprintf("failed to write %s", infPath))
	}

	manifest, err := json.MarshalIndent(Manifest{
		InfName:     p.infName,
		DriverType:  spec.Type.String(),
		Service:     data.Service,
		Description: spec.Description,
		HardwareID:  data.HardwareID,
		GUID:        spec.DeviceInterfaceGUID,
		CatalogLine: spec.Line,
		PreparedAt:  now.Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode driver manifest")
	}
	manifestPath := filepath.Join(destDir, ManifestName)
	if err := afero.WriteFile(p.fs, manifestPath, manifest, filePerm); err != nil {
		return errors.Wrap(err, errors.CodePrepareFailed, fmt.Sprintf("failed to write %s", manifestPath))
	}

	p.logger.Debugf(ctx, "Wrote %s and %s", infPath, manifestPath)
	return nil
}

// escapeINF doubles quotes and percent signs so descriptions survive the [Strings]
// section.
func escapeINF(s string) string {
	return strings.NewReplacer(`"`, `""`, "%", "%%").Replace(s)
}

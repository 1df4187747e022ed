// Package snapshot lists devices recorded in a YAML or JSON file. It stands in for
// live enumeration on hosts without sysfs and in dry runs.
package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const ListerTypeSnapshot = "snapshot"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// File is the on-disk layout.
type File struct {
	Devices []domain.AttachedDevice `json:"devices" yaml:"devices"`
}

type Lister struct {
	fs     afero.Fs
	path   string
	logger ports.Logger
}

func NewLister(cfg Config, fs afero.Fs, logger ports.Logger) (*Lister, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.CodeConfigValidation, "device snapshot path cannot be empty")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Lister{
		fs:     fs,
		path:   cfg.Path,
		logger: logger.WithFields(map[string]any{"component": "device_lister", "type": ListerTypeSnapshot}),
	}, nil
}

func (l *Lister) Type() string { return ListerTypeSnapshot }

// ListDevices re-reads the snapshot on every call so edits between specs are seen.
func (l *Lister) ListDevices(ctx context.Context, opts domain.ListOptions) ([]domain.AttachedDevice, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEnumerationFailed, fmt.Sprintf("failed to read device snapshot %s", l.path))
	}

	var file File
	if strings.EqualFold(filepath.Ext(l.path), ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEnumerationFailed, fmt.Sprintf("failed to decode device snapshot %s", l.path))
	}

	devices := make([]domain.AttachedDevice, 0, len(file.Devices))
	for _, dev := range file.Devices {
		if dev.IsHub && !opts.ListHubs {
			continue
		}
		if dev.HasDriver() && !opts.ListAll {
			continue
		}
		if opts.TrimWhitespaces {
			dev.Description = strings.TrimSpace(dev.Description)
		}
		if dev.HardwareID == "" {
			dev.HardwareID = fmt.Sprintf(`USB\VID_%04X&PID_%04X`, dev.VendorID, dev.ProductID)
		}
		devices = append(devices, dev)
	}

	l.logger.Debugf(ctx, "Loaded %d of %d devices from %s", len(devices), len(file.Devices), l.path)
	return devices, nil
}

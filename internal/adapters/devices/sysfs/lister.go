// Package sysfs lists attached USB devices from the Linux sysfs tree.
//
// Every device directory under the root (names like "1-1" or "1-1.2") contributes
// one entry per interface for composite devices, or a single entry otherwise. The
// bound driver is read from the interface's uevent file.
package sysfs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const (
	ListerTypeSysfs = "sysfs"
	DefaultRoot     = "/sys/bus/usb/devices"

	defaultWorkers = 4
	hubClass       = 0x09
)

type Config struct {
	Root    string `yaml:"root" mapstructure:"root"`
	Workers int    `yaml:"workers" mapstructure:"workers" validate:"min=0,max=64"`
}

type Lister struct {
	fs      afero.Fs
	root    string
	workers int
	logger  ports.Logger
}

func NewLister(cfg Config, fs afero.Fs, logger ports.Logger) *Lister {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Lister{
		fs:      fs,
		root:    root,
		workers: workers,
		logger:  logger.WithFields(map[string]any{"component": "device_lister", "type": ListerTypeSysfs}),
	}
}

func (l *Lister) Type() string { return ListerTypeSysfs }

// usbDevice is what one sysfs device directory yields.
type usbDevice struct {
	name        string
	vendorID    uint16
	productID   uint16
	deviceClass uint8
	product     string
	interfaces  []usbInterface
}

type usbInterface struct {
	name   string
	number uint8
	driver string
}

func (l *Lister) ListDevices(ctx context.Context, opts domain.ListOptions) ([]domain.AttachedDevice, error) {
	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEnumerationFailed, fmt.Sprintf("failed to read %s", l.root))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		// Interfaces ("1-1:1.0") are read through their device.
		if strings.Contains(name, ":") {
			continue
		}
		if strings.HasPrefix(name, "usb") && !opts.ListHubs {
			continue
		}
		names = append(names, name)
	}

	parsed := make([]*usbDevice, len(names))
	g, childCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if childCtx.Err() != nil {
				return childCtx.Err()
			}
			dev, err := l.readDevice(name)
			if err != nil {
				l.logger.Debugf(childCtx, "Skipping %s: %v", name, err)
				return nil
			}
			parsed[i] = dev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var devices []domain.AttachedDevice
	for _, dev := range parsed {
		if dev == nil {
			continue
		}
		if dev.deviceClass == hubClass && !opts.ListHubs {
			continue
		}
		for _, attached := range dev.attached(opts) {
			if attached.HasDriver() && !opts.ListAll {
				continue
			}
			devices = append(devices, attached)
		}
	}

	l.logger.Debugf(ctx, "Enumerated %d devices from %d sysfs entries", len(devices), len(names))
	return devices, nil
}

func (l *Lister) readDevice(name string) (*usbDevice, error) {
	dir := filepath.Join(l.root, name)
	dev := &usbDevice{name: name}

	var err error
	if dev.vendorID, err = l.readHex16(filepath.Join(dir, "idVendor")); err != nil {
		return nil, err
	}
	if dev.productID, err = l.readHex16(filepath.Join(dir, "idProduct")); err != nil {
		return nil, err
	}
	if class, err := l.readHex(filepath.Join(dir, "bDeviceClass"), 8); err == nil {
		dev.deviceClass = uint8(class)
	}
	if product, err := l.readRaw(filepath.Join(dir, "product")); err == nil {
		dev.product = strings.TrimRight(product, "\n")
	}

	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		ifName := entry.Name()
		if !strings.HasPrefix(ifName, name+":") {
			continue
		}
		ifDir := filepath.Join(dir, ifName)
		num, err := l.readHex(filepath.Join(ifDir, "bInterfaceNumber"), 8)
		if err != nil {
			continue
		}
		dev.interfaces = append(dev.interfaces, usbInterface{
			name:   ifName,
			number: uint8(num),
			driver: l.readDriver(ifDir),
		})
	}
	sort.SliceStable(dev.interfaces, func(i, j int) bool {
		return dev.interfaces[i].number < dev.interfaces[j].number
	})
	return dev, nil
}

// readDriver returns the DRIVER= value of the interface's uevent, or "".
func (l *Lister) readDriver(ifDir string) string {
	raw, err := afero.ReadFile(l.fs, filepath.Join(ifDir, "uevent"))
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if driver, ok := strings.CutPrefix(scanner.Text(), "DRIVER="); ok {
			return strings.TrimSpace(driver)
		}
	}
	return ""
}

func (d *usbDevice) attached(opts domain.ListOptions) []domain.AttachedDevice {
	desc := d.product
	if opts.TrimWhitespaces {
		desc = strings.TrimSpace(desc)
	}
	base := fmt.Sprintf(`USB\VID_%04X&PID_%04X`, d.vendorID, d.productID)

	if len(d.interfaces) <= 1 {
		dev := domain.AttachedDevice{
			VendorID:         d.vendorID,
			ProductID:        d.productID,
			HardwareID:       base,
			DeviceInstanceID: d.name,
			Description:      desc,
			IsHub:            d.deviceClass == hubClass,
		}
		if len(d.interfaces) == 1 {
			dev.InterfaceNumber = d.interfaces[0].number
			dev.DeviceInstanceID = d.interfaces[0].name
			dev.BoundDriver = d.interfaces[0].driver
		}
		return []domain.AttachedDevice{dev}
	}

	out := make([]domain.AttachedDevice, 0, len(d.interfaces))
	for _, iface := range d.interfaces {
		out = append(out, domain.AttachedDevice{
			VendorID:         d.vendorID,
			ProductID:        d.productID,
			InterfaceNumber:  iface.number,
			HardwareID:       fmt.Sprintf("%s&MI_%02X", base, iface.number),
			DeviceInstanceID: iface.name,
			BoundDriver:      iface.driver,
			Description:      desc,
			IsHub:            d.deviceClass == hubClass,
		})
	}
	return out
}

func (l *Lister) readRaw(p string) (string, error) {
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *Lister) readHex(p string, bitSize int) (uint64, error) {
	s, err := l.readRaw(p)
	if err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return strconv.ParseUint(s, 16, bitSize)
}

func (l *Lister) readHex16(p string) (uint16, error) {
	v, err := l.readHex(p, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

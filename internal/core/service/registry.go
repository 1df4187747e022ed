package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

// ComponentRegistry holds the device listers and installers the binary knows about,
// keyed by their type name.
type ComponentRegistry struct {
	mu            sync.RWMutex
	deviceListers map[string]ports.DeviceLister
	installers    map[string]ports.Installer
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		deviceListers: make(map[string]ports.DeviceLister),
		installers:    make(map[string]ports.Installer),
	}
}

func (r *ComponentRegistry) RegisterDeviceLister(lister ports.DeviceLister) error {
	if lister == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil device lister")
	}
	listerType := lister.Type()
	if listerType == "" {
		return errors.New(errors.CodeInternal, "device lister type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.deviceListers[listerType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("device lister type '%s' already registered", listerType))
	}
	r.deviceListers[listerType] = lister
	return nil
}

func (r *ComponentRegistry) GetDeviceLister(listerType string) (ports.DeviceLister, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lister, exists := r.deviceListers[listerType]
	if !exists {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("device lister type '%s' not found", listerType),
			fmt.Sprintf("Supported: %v", sortedKeys(r.deviceListers)))
	}
	return lister, nil
}

func (r *ComponentRegistry) RegisterInstaller(installer ports.Installer) error {
	if installer == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil installer")
	}
	installerType := installer.Type()
	if installerType == "" {
		return errors.New(errors.CodeInternal, "installer type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.installers[installerType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("installer type '%s' already registered", installerType))
	}
	r.installers[installerType] = installer
	return nil
}

func (r *ComponentRegistry) GetInstaller(installerType string) (ports.Installer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	installer, exists := r.installers[installerType]
	if !exists {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("installer type '%s' not found", installerType),
			fmt.Sprintf("Supported: %v", sortedKeys(r.installers)))
	}
	return installer, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

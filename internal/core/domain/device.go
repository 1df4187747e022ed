package domain

import "fmt"

// AttachedDevice is a point-in-time view of one enumerated USB device or interface.
type AttachedDevice struct {
	VendorID         uint16 `json:"vid" yaml:"vid"`
	ProductID        uint16 `json:"pid" yaml:"pid"`
	InterfaceNumber  uint8  `json:"interface" yaml:"interface"`
	HardwareID       string `json:"hardware_id" yaml:"hardware_id"`
	DeviceInstanceID string `json:"device_id" yaml:"device_id"`
	// BoundDriver is empty when no driver is attached.
	BoundDriver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	IsHub       bool   `json:"hub,omitempty" yaml:"hub,omitempty"`
}

func (d AttachedDevice) HasDriver() bool {
	return d.BoundDriver != ""
}

func (d AttachedDevice) Identity() DeviceIdentity {
	return DeviceIdentity{
		HardwareID:       d.HardwareID,
		DeviceInstanceID: d.DeviceInstanceID,
		InterfaceNumber:  d.InterfaceNumber,
	}
}

func (d AttachedDevice) String() string {
	if d.HardwareID != "" {
		return d.HardwareID
	}
	return fmt.Sprintf("%04x:%04x/%d", d.VendorID, d.ProductID, d.InterfaceNumber)
}

// DeviceIdentity binds an install to one physical device.
type DeviceIdentity struct {
	HardwareID       string
	DeviceInstanceID string
	InterfaceNumber  uint8
}

// ListOptions controls device enumeration.
type ListOptions struct {
	ListAll         bool
	ListHubs        bool
	TrimWhitespaces bool
}

package identity

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
)

const MatcherTypeIdentity = "identity"

// Matcher pairs a spec with every attached device that has the same vendor id,
// product id and interface number.
type Matcher struct {
	logger ports.Logger
}

func NewMatcher(logger ports.Logger) *Matcher {
	return &Matcher{logger: logger}
}

func (m *Matcher) Match(ctx context.Context, spec domain.DriverSpec, devices []domain.AttachedDevice) (ports.MatchResult, error) {
	if ctx.Err() != nil {
		return ports.MatchResult{}, ctx.Err()
	}

	matched := MatchDevices(spec, devices)
	m.logger.Debugf(ctx, "Identity matching for %04x:%04x/%d: %d of %d devices matched",
		spec.VendorID, spec.ProductID, spec.InterfaceNumber, len(matched), len(devices))

	return ports.MatchResult{Spec: spec, Matched: matched}, nil
}

// MatchDevices returns the devices whose identity equals the spec's, in input order.
// Neither argument is modified.
func MatchDevices(spec domain.DriverSpec, devices []domain.AttachedDevice) []domain.AttachedDevice {
	matched := make([]domain.AttachedDevice, 0)
	for _, dev := range devices {
		if dev.VendorID == spec.VendorID &&
			dev.ProductID == spec.ProductID &&
			dev.InterfaceNumber == spec.InterfaceNumber {
			matched = append(matched, dev)
		}
	}
	return matched
}

package service

import "github.com/olusolaa/usb-driver-reconciler/internal/core/domain"

// Decide chooses what to do for one matched device, or for a spec with no matched
// device when device is nil. It has no side effects.
func Decide(device *domain.AttachedDevice, policy domain.Policy) domain.Decision {
	if device == nil {
		if policy.All {
			return domain.DecisionInstall
		}
		return domain.DecisionSkipNoDevice
	}
	if !device.HasDriver() || policy.Force {
		return domain.DecisionInstall
	}
	return domain.DecisionSkipExistingDriver
}

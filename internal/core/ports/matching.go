package ports

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
)

// MatchResult relates one spec to the devices that share its identity.
type MatchResult struct {
	Spec    domain.DriverSpec
	Matched []domain.AttachedDevice
}

func (r MatchResult) Found() bool {
	return len(r.Matched) > 0
}

//go:generate mockery --name=DeviceMatcher --output=./mocks --outpkg=mocks --case underscore
type DeviceMatcher interface {
	Match(ctx context.Context, spec domain.DriverSpec, devices []domain.AttachedDevice) (MatchResult, error)
}

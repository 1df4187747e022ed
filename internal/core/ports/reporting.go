package ports

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, outcome domain.RunOutcome) error
}

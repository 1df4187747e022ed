package ports

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
)

//go:generate mockery --name ReconciliationEngine --output ./mocks --outpkg mocks --case underscore
type ReconciliationEngine interface {
	Run(ctx context.Context) (domain.RunOutcome, error)
}

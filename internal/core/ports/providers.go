package ports

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
)

// CatalogLine is one raw line of the driver catalog.
type CatalogLine struct {
	Number int
	Text   string
}

//go:generate mockery --name CatalogSource --output ./mocks --outpkg mocks --case underscore
type CatalogSource interface {
	Name() string
	Lines(ctx context.Context) ([]CatalogLine, error)
}

// DeviceLister enumerates attached devices. Every call returns a fresh snapshot.
//
//go:generate mockery --name DeviceLister --output ./mocks --outpkg mocks --case underscore
type DeviceLister interface {
	Type() string
	ListDevices(ctx context.Context, opts domain.ListOptions) ([]domain.AttachedDevice, error)
}

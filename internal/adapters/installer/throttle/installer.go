// Package throttle spaces out calls to a wrapped installer. Driver stores on some
// hosts reject back-to-back installs.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
)

const maxMinInterval = time.Hour

type Config struct {
	// MinInterval is the minimum gap between two installs. Zero disables throttling.
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval" validate:"min=0"`
}

type Installer struct {
	next    ports.Installer
	limiter *rate.Limiter
	logger  ports.Logger
}

// Wrap returns next unchanged when throttling is disabled.
func Wrap(next ports.Installer, cfg Config, logger ports.Logger) ports.Installer {
	interval := cfg.MinInterval
	if interval <= 0 {
		return next
	}
	if interval > maxMinInterval {
		logger.Warnf(context.Background(), "Install interval %s exceeds %s, using %s", interval, maxMinInterval, maxMinInterval)
		interval = maxMinInterval
	}
	logger.Infof(context.Background(), "Spacing %s installs at least %s apart", next.Type(), interval)
	return &Installer{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger.WithFields(map[string]any{"component": "installer_throttle"}),
	}
}

func (i *Installer) Type() string { return i.next.Type() }

func (i *Installer) Install(ctx context.Context, spec domain.DriverSpec, device *domain.DeviceIdentity, destDir string) error {
	if err := i.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		i.logger.Warnf(ctx, "Error waiting for install slot: %v", err)
		return err
	}
	return i.next.Install(ctx, spec, device, destDir)
}

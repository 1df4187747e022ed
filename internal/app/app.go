package app

import (
	"context"

	"github.com/olusolaa/usb-driver-reconciler/internal/config"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
)

// Application runs the reconciliation engine built by BuildApplicationFromViper.
type Application struct {
	Engine ports.ReconciliationEngine
	Logger ports.Logger
	Config *config.Config
}

func NewApplication(engine ports.ReconciliationEngine, logger ports.Logger, cfg *config.Config) *Application {
	return &Application{
		Engine: engine,
		Logger: logger,
		Config: cfg,
	}
}

// Run executes one reconciliation pass over the catalog.
func (a *Application) Run(ctx context.Context) (domain.RunOutcome, error) {
	a.Logger.Infof(ctx, "Starting driver reconciliation...")

	outcome, err := a.Engine.Run(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Driver reconciliation failed")
		return outcome, err
	}

	if outcome.ExitCode() != 0 {
		a.Logger.Warnf(ctx, "Driver reconciliation completed with failures")
	} else {
		a.Logger.Infof(ctx, "Driver reconciliation completed successfully")
	}
	return outcome, nil
}

package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/catalog"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

// Dependencies are the collaborators the engine drives. Certificates and Reporter
// may be nil.
type Dependencies struct {
	Catalog      ports.CatalogSource
	Matcher      ports.DeviceMatcher
	Preparer     ports.Preparer
	Certificates ports.CertificateInstaller
	Lister       ports.DeviceLister
	Installer    ports.Installer
	Reporter     ports.Reporter
}

type Settings struct {
	Policy      domain.Policy
	ParseOpts   catalog.ParseOptions
	ListOptions domain.ListOptions
	DestDir     string
}

// ReconciliationEngine walks the catalog in order and installs, skips or reports each
// spec. It is strictly sequential.
type ReconciliationEngine struct {
	deps     Dependencies
	settings Settings
	logger   ports.Logger
}

func NewReconciliationEngine(deps Dependencies, settings Settings, logger ports.Logger) (*ReconciliationEngine, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New(errors.CodeConfigValidation, "catalog source cannot be nil")
	case deps.Matcher == nil:
		return nil, errors.New(errors.CodeConfigValidation, "device matcher cannot be nil")
	case deps.Preparer == nil:
		return nil, errors.New(errors.CodeConfigValidation, "driver preparer cannot be nil")
	case deps.Lister == nil:
		return nil, errors.New(errors.CodeConfigValidation, "device lister cannot be nil")
	case deps.Installer == nil:
		return nil, errors.New(errors.CodeConfigValidation, "installer cannot be nil")
	}
	if settings.DestDir == "" {
		return nil, errors.New(errors.CodeConfigValidation, "extraction directory cannot be empty")
	}

	return &ReconciliationEngine{
		deps:     deps,
		settings: settings,
		logger:   logger,
	}, nil
}

var errExtractOnly = errors.NewUserFacing(errors.CodeExtractOnly,
	"driver files extracted, installation skipped", "Run again without --extract-only to install.")

// Run processes the whole catalog. The returned error is set when the run stopped
// abnormally; extract-only stops are reported through the outcome only.
func (e *ReconciliationEngine) Run(ctx context.Context) (domain.RunOutcome, error) {
	var outcome domain.RunOutcome
	policy := e.settings.Policy

	e.logger.Infof(ctx, "Starting reconciliation of %s (force=%t, all=%t, extract_only=%t) using %s devices and %s installer",
		e.deps.Catalog.Name(), policy.Force, policy.All, policy.ExtractOnly, e.deps.Lister.Type(), e.deps.Installer.Type())

	lines, err := e.deps.Catalog.Lines(ctx)
	if err != nil {
		wrapped := errors.Wrap(err, errors.CodeCatalogReadError, "failed to read driver catalog")
		e.logger.Errorf(ctx, wrapped, "Could not open %s", e.deps.Catalog.Name())
		outcome.Halt(wrapped)
		return outcome, wrapped
	}
	e.logger.Debugf(ctx, "Read %d catalog lines", len(lines))

	runErr := e.processLines(ctx, lines, &outcome)
	if runErr != nil {
		outcome.Halt(runErr)
	}

	if reportErr := e.report(ctx, outcome, runErr); reportErr != nil && runErr == nil {
		runErr = reportErr
	}

	if stderrors.Is(runErr, errExtractOnly) {
		e.logger.Infof(ctx, "Extract-only run stopped after preparing %s", outcome.Results[len(outcome.Results)-1].Spec.Description)
		return outcome, nil
	}
	if runErr != nil {
		return outcome, runErr
	}

	e.logger.Infof(ctx, "Reconciliation finished: %d results, exit code %d", len(outcome.Results), outcome.ExitCode())
	return outcome, nil
}

func (e *ReconciliationEngine) processLines(ctx context.Context, lines []ports.CatalogLine, outcome *domain.RunOutcome) error {
	opts := e.settings.ParseOpts
	for _, line := range lines {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lineOpts := opts
		lineOpts.OnCoerce = func(f catalog.Field, tok string, v uint16) {
			e.logger.Warnf(ctx, "Line %d: %s %q is not a clean 16-bit hex value, using 0x%04x", line.Number, f, tok, v)
			if opts.OnCoerce != nil {
				opts.OnCoerce(f, tok, v)
			}
		}

		spec, err := catalog.ParseLine(line.Text, line.Number, lineOpts)
		if err != nil {
			e.logger.Errorf(ctx, err, "Invalid catalog line %d", line.Number)
			return err
		}
		if spec == nil {
			continue
		}

		if err := e.reconcileSpec(ctx, *spec, outcome); err != nil {
			return err
		}
	}
	return nil
}

// reconcileSpec runs prepare, certificate, enumerate and install for one spec. A
// returned error halts the run.
func (e *ReconciliationEngine) reconcileSpec(ctx context.Context, spec domain.DriverSpec, outcome *domain.RunOutcome) error {
	log := e.logger.WithFields(map[string]any{
		"line": spec.Line,
		"spec": fmt.Sprintf("%04x:%04x", spec.VendorID, spec.ProductID),
	})
	log.Infof(ctx, "Description %s", spec.Description)

	log.Infof(ctx, "Extracting driver files for %s...", spec.Description)
	if err := e.deps.Preparer.Prepare(ctx, spec, e.settings.DestDir); err != nil {
		wrapped := errors.WrapAs(err, errors.CodePrepareFailed,
			fmt.Sprintf("failed to extract %s driver files for %s", spec.Type, spec.Description))
		log.Errorf(ctx, wrapped, "Driver extraction failed")
		outcome.Add(domain.SpecResult{Spec: spec, Action: domain.ActionFailed, Err: wrapped})
		if e.settings.Policy.ContinueOnError {
			log.Warnf(ctx, "Continuing with the next catalog entry")
			return nil
		}
		return wrapped
	}
	log.Debugf(ctx, "Driver files extracted to %s", e.settings.DestDir)

	if e.settings.Policy.ExtractOnly {
		outcome.Add(domain.SpecResult{Spec: spec, Action: domain.ActionPreparedAborted, Err: errExtractOnly})
		return errExtractOnly
	}

	e.installCertificate(ctx, spec, log)

	log.Infof(ctx, "Installing driver for %s...", spec.Description)

	devices, err := e.deps.Lister.ListDevices(ctx, e.settings.ListOptions)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wrapped := errors.WrapAs(err, errors.CodeEnumerationFailed, "failed to list attached devices")
		log.Warnf(ctx, "Device enumeration failed, treating as no attached devices: %v", wrapped)
		devices = nil
	}

	match, err := e.deps.Matcher.Match(ctx, spec, devices)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "device matching failed")
	}

	if !match.Found() {
		switch Decide(nil, e.settings.Policy) {
		case domain.DecisionInstall:
			log.Infof(ctx, "No attached device matches, installing driver anyway")
			return e.install(ctx, spec, nil, outcome, log)
		default:
			log.Infof(ctx, "No attached device matches, skipping")
			outcome.Add(domain.SpecResult{Spec: spec, Action: domain.ActionSkippedNoDevice})
			return nil
		}
	}

	for i := range match.Matched {
		dev := match.Matched[i]
		devLog := log.WithFields(map[string]any{"device": dev.String()})
		switch Decide(&dev, e.settings.Policy) {
		case domain.DecisionInstall:
			if err := e.install(ctx, spec, &dev, outcome, devLog); err != nil {
				return err
			}
		default:
			devLog.Infof(ctx, "Device already uses driver %s, skipping (use --force to reinstall)", dev.BoundDriver)
			outcome.Add(domain.SpecResult{Spec: spec, Device: &dev, Action: domain.ActionSkippedExistingDriver})
		}
	}
	return nil
}

func (e *ReconciliationEngine) installCertificate(ctx context.Context, spec domain.DriverSpec, log ports.Logger) {
	if spec.CertName == "" {
		return
	}
	if e.deps.Certificates == nil {
		log.Warnf(ctx, "Certificate %s requested but no certificate installer is configured", spec.CertName)
		return
	}
	log.Infof(ctx, "Installing certificate '%s' as a Trusted Publisher...", spec.CertName)
	if err := e.deps.Certificates.InstallCertificate(ctx, spec.CertName); err != nil {
		wrapped := errors.WrapAs(err, errors.CodeCertInstallFailed, fmt.Sprintf("failed to install certificate %s", spec.CertName))
		log.Errorf(ctx, wrapped, "Certificate installation failed, continuing")
	}
}

// install records Installed or Failed. Only cancellation is returned as an error;
// install failures never stop sibling devices or later specs.
func (e *ReconciliationEngine) install(ctx context.Context, spec domain.DriverSpec, dev *domain.AttachedDevice, outcome *domain.RunOutcome, log ports.Logger) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var identity *domain.DeviceIdentity
	if dev != nil {
		id := dev.Identity()
		identity = &id
	}

	err := e.deps.Installer.Install(ctx, spec, identity, e.settings.DestDir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wrapped := errors.WrapAs(err, errors.CodeInstallFailed, fmt.Sprintf("failed to install %s driver for %s", spec.Type, spec.Description))
		log.Errorf(ctx, wrapped, "Driver installation failed")
		outcome.Add(domain.SpecResult{Spec: spec, Device: dev, Action: domain.ActionFailed, Err: wrapped})
		return nil
	}

	log.Infof(ctx, "Driver installed")
	outcome.Add(domain.SpecResult{Spec: spec, Device: dev, Action: domain.ActionInstalled})
	return nil
}

func (e *ReconciliationEngine) report(ctx context.Context, outcome domain.RunOutcome, runErr error) error {
	if e.deps.Reporter == nil {
		return nil
	}
	if stderrors.Is(runErr, context.Canceled) || stderrors.Is(runErr, context.DeadlineExceeded) {
		e.logger.Warnf(ctx, "Reconciliation cancelled, skipping report: %v", runErr)
		return nil
	}
	if err := e.deps.Reporter.Report(ctx, outcome); err != nil {
		wrapped := errors.Wrap(err, errors.CodeReportError, "failed to generate report")
		e.logger.Errorf(ctx, wrapped, "Reporting failed")
		return wrapped
	}
	return nil
}

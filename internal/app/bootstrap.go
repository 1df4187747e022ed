package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/catalog/file"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/devices/snapshot"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/devices/sysfs"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/driverpkg"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/installer/command"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/installer/dryrun"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/installer/throttle"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/matching/identity"
	"github.com/olusolaa/usb-driver-reconciler/internal/config"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/catalog"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/service"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
	"github.com/olusolaa/usb-driver-reconciler/internal/log"
	jsonreporter "github.com/olusolaa/usb-driver-reconciler/internal/reporting/json"
	"github.com/olusolaa/usb-driver-reconciler/internal/reporting/text"
)

const reporterNone = "none"

type buildOptions struct {
	fs        afero.Fs
	out       io.Writer
	logOut    io.Writer
	runner    command.Runner
	installer ports.Installer
}

type Option func(*buildOptions)

// WithFS sets the filesystem used by the catalog, device and driver adapters.
func WithFS(fs afero.Fs) Option {
	return func(o *buildOptions) { o.fs = fs }
}

// WithOutput sets where the report is written.
func WithOutput(w io.Writer) Option {
	return func(o *buildOptions) { o.out = w }
}

func WithLogOutput(w io.Writer) Option {
	return func(o *buildOptions) { o.logOut = w }
}

// WithCommandRunner replaces process execution in the command installer.
func WithCommandRunner(r command.Runner) Option {
	return func(o *buildOptions) { o.runner = r }
}

// WithInstaller registers an extra installer that config can select by type.
func WithInstaller(i ports.Installer) Option {
	return func(o *buildOptions) { o.installer = i }
}

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, opts ...Option) (*Application, error) {
	bo := buildOptions{fs: afero.NewOsFs(), out: os.Stdout, logOut: os.Stderr}
	for _, opt := range opts {
		opt(&bo)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.LogConfig()
	logCfg.Output = bo.logOut
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	if err := validateConfig(ctx, cfg); err != nil {
		logger.Errorf(ctx, err, "Configuration validation failed")
		return nil, err
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	registry, err := buildRegistry(cfg, bo, logger)
	if err != nil {
		return nil, err
	}

	lister, err := registry.GetDeviceLister(cfg.Devices.Type)
	if err != nil {
		return nil, err
	}
	logger.Infof(ctx, "Using %s device lister", lister.Type())

	installer, err := registry.GetInstaller(cfg.Installer.Type)
	if err != nil {
		return nil, err
	}
	var certificates ports.CertificateInstaller
	if ci, ok := installer.(ports.CertificateInstaller); ok {
		certificates = ci
	}
	installer = throttle.Wrap(installer, cfg.ThrottleConfig(), logger)
	logger.Infof(ctx, "Using %s installer", installer.Type())

	reporter, err := buildReporter(cfg, bo.out, logger)
	if err != nil {
		return nil, err
	}

	source, err := file.NewSource(file.Config{Path: cfg.Catalog.Path}, bo.fs, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize catalog source")
	}

	hexMode := catalog.HexLenient
	if cfg.Catalog.StrictHex {
		hexMode = catalog.HexStrict
	}

	engine, err := service.NewReconciliationEngine(
		service.Dependencies{
			Catalog:      source,
			Matcher:      identity.NewMatcher(logger),
			Preparer:     driverpkg.NewPreparer(driverpkg.Config{InfName: cfg.Driver.InfName}, bo.fs, logger),
			Certificates: certificates,
			Lister:       lister,
			Installer:    installer,
			Reporter:     reporter,
		},
		service.Settings{
			Policy:      cfg.DomainPolicy(),
			ParseOpts:   catalog.ParseOptions{HexMode: hexMode, CertName: cfg.Driver.CertName},
			ListOptions: cfg.ListOptions(),
			DestDir:     cfg.Driver.ExtractDir,
		},
		logger.WithFields(map[string]any{"component": "engine"}),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize reconciliation engine")
	}

	logger.Debugf(ctx, "Application bootstrap complete")
	return NewApplication(engine, logger, cfg), nil
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigParseError,
			"Failed to parse configuration", "Please check value types in your configuration file, environment or flags.")
	}

	if listerType, path := parseDevicesOverride(v.GetString(DevicesOverrideKey)); listerType != "" {
		cfg.Devices.Type = listerType
		if path != "" {
			cfg.Devices.SnapshotPath = path
		}
	}
	return cfg, nil
}

func validateConfig(ctx context.Context, cfg *config.Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return errors.Wrap(err, errors.CodeInternal, "configuration validation could not run")
	}
	var errorDetails strings.Builder
	errorDetails.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		errorDetails.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, errorDetails.String(), "Please check your configuration file or flags.")
}

func buildRegistry(cfg *config.Config, bo buildOptions, logger ports.Logger) (*service.ComponentRegistry, error) {
	registry := service.NewComponentRegistry()

	if err := registry.RegisterDeviceLister(sysfs.NewLister(cfg.Devices.Sysfs, bo.fs, logger)); err != nil {
		return nil, err
	}
	if cfg.Devices.SnapshotPath != "" {
		lister, err := snapshot.NewLister(cfg.SnapshotConfig(), bo.fs, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterDeviceLister(lister); err != nil {
			return nil, err
		}
	}

	if err := registry.RegisterInstaller(dryrun.NewInstaller(logger)); err != nil {
		return nil, err
	}
	if cfg.Installer.Command.Path != "" {
		var cmdOpts []command.Option
		if bo.runner != nil {
			cmdOpts = append(cmdOpts, command.WithRunner(bo.runner))
		}
		inst, err := command.NewInstaller(cfg.Installer.Command, cfg.Driver.InfName, logger, cmdOpts...)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterInstaller(inst); err != nil {
			return nil, err
		}
	}
	if bo.installer != nil {
		if err := registry.RegisterInstaller(bo.installer); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildReporter(cfg *config.Config, out io.Writer, logger ports.Logger) (ports.Reporter, error) {
	if cfg.Settings.Silent {
		out = io.Discard
	}
	reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": cfg.Settings.ReporterType})

	switch cfg.Settings.ReporterType {
	case text.ReporterTypeText:
		reporter, err := text.NewReporter(cfg.Settings.Reporter.Text, out, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize Text reporter")
		}
		return reporter, nil
	case jsonreporter.ReporterTypeJSON:
		reporter, err := jsonreporter.NewReporter(cfg.Settings.Reporter.JSON, out, reportLog)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize JSON reporter")
		}
		return reporter, nil
	case reporterNone:
		return nil, nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported reporter type: %s", cfg.Settings.ReporterType), "Supported: text, json, none")
	}
}

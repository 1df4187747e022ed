package config

import (
	"time"

	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/catalog/file"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/devices/snapshot"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/devices/sysfs"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/driverpkg"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/installer/command"
	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/installer/throttle"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/log"
	"github.com/olusolaa/usb-driver-reconciler/internal/reporting/json"
	"github.com/olusolaa/usb-driver-reconciler/internal/reporting/text"
)

type Config struct {
	Settings  SettingsConfig  `yaml:"settings" mapstructure:"settings"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Driver    DriverConfig    `yaml:"driver" mapstructure:"driver"`
	Devices   DevicesConfig   `yaml:"devices" mapstructure:"devices"`
	Installer InstallerConfig `yaml:"installer" mapstructure:"installer"`
}

type SettingsConfig struct {
	LogLevel     log.Level       `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat    log.Format      `yaml:"log_format" mapstructure:"log_format" validate:"omitempty,oneof=text json"`
	Silent       bool            `yaml:"silent" mapstructure:"silent"`
	ReporterType string          `yaml:"reporter" mapstructure:"reporter" validate:"oneof=text json none"`
	Reporter     ReporterConfigs `yaml:"reporter_config" mapstructure:"reporter_config"`
}

type ReporterConfigs struct {
	Text text.Config `yaml:"text" mapstructure:"text"`
	JSON json.Config `yaml:"json" mapstructure:"json"`
}

type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
	// StrictHex rejects vid/pid tokens that are not clean 16-bit hex numbers instead
	// of coercing them.
	StrictHex bool `yaml:"strict_hex" mapstructure:"strict_hex"`
}

type PolicyConfig struct {
	Force           bool `yaml:"force" mapstructure:"force"`
	All             bool `yaml:"all" mapstructure:"all"`
	ExtractOnly     bool `yaml:"extract_only" mapstructure:"extract_only"`
	ContinueOnError bool `yaml:"continue_on_error" mapstructure:"continue_on_error"`
}

type DriverConfig struct {
	ExtractDir string `yaml:"extract_dir" mapstructure:"extract_dir" validate:"required"`
	InfName    string `yaml:"inf_name" mapstructure:"inf_name" validate:"required,endswith=.inf"`
	CertName   string `yaml:"cert_name" mapstructure:"cert_name"`
}

type DevicesConfig struct {
	Type            string       `yaml:"type" mapstructure:"type" validate:"oneof=sysfs snapshot"`
	ListHubs        bool         `yaml:"list_hubs" mapstructure:"list_hubs"`
	TrimWhitespaces bool         `yaml:"trim_whitespaces" mapstructure:"trim_whitespaces"`
	Sysfs           sysfs.Config `yaml:"sysfs" mapstructure:"sysfs"`
	SnapshotPath    string       `yaml:"snapshot_path" mapstructure:"snapshot_path" validate:"required_if=Type snapshot"`
}

type InstallerConfig struct {
	Type    string         `yaml:"type" mapstructure:"type" validate:"oneof=command dryrun"`
	Command command.Config `yaml:"command" mapstructure:"command"`
	// MinInterval spaces consecutive installs. Zero disables throttling.
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval" validate:"min=0"`
}

func (c *Config) DomainPolicy() domain.Policy {
	return domain.Policy{
		Force:           c.Policy.Force,
		All:             c.Policy.All,
		ExtractOnly:     c.Policy.ExtractOnly,
		ContinueOnError: c.Policy.ContinueOnError,
	}
}

// ListOptions always lists bound devices: the policy needs them to decide between
// install and skip.
func (c *Config) ListOptions() domain.ListOptions {
	return domain.ListOptions{
		ListAll:         true,
		ListHubs:        c.Devices.ListHubs,
		TrimWhitespaces: c.Devices.TrimWhitespaces,
	}
}

func (c *Config) SnapshotConfig() snapshot.Config {
	return snapshot.Config{Path: c.Devices.SnapshotPath}
}

func (c *Config) ThrottleConfig() throttle.Config {
	return throttle.Config{MinInterval: c.Installer.MinInterval}
}

func (c *Config) LogConfig() log.Config {
	return log.Config{
		Level:  c.Settings.LogLevel,
		Format: c.Settings.LogFormat,
		Silent: c.Settings.Silent,
	}
}

func DefaultConfig() *Config {
	logDefaults := log.DefaultConfig()
	return &Config{
		Settings: SettingsConfig{
			LogLevel:     logDefaults.Level,
			LogFormat:    logDefaults.Format,
			ReporterType: text.ReporterTypeText,
		},
		Catalog: CatalogConfig{
			Path: file.DefaultPath,
		},
		Driver: DriverConfig{
			ExtractDir: driverpkg.DefaultExtractDir,
			InfName:    driverpkg.DefaultInfName,
		},
		Devices: DevicesConfig{
			Type:            sysfs.ListerTypeSysfs,
			TrimWhitespaces: true,
			Sysfs:           sysfs.Config{Root: sysfs.DefaultRoot},
		},
		Installer: InstallerConfig{
			Type:    command.InstallerTypeCommand,
			Command: command.DefaultConfig(),
		},
	}
}

// Package command installs drivers and certificates by running external tools such
// as pnputil and certutil. Arguments are text/template strings rendered per call.
package command

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const (
	InstallerTypeCommand = "command"

	maxOutputInDetails = 2048
)

type Config struct {
	Path    string        `yaml:"path" mapstructure:"path"`
	Args    []string      `yaml:"args" mapstructure:"args"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"min=0"`
	// CertPath and CertArgs install the trust certificate. An empty CertPath disables
	// certificate installation.
	CertPath string   `yaml:"cert_path" mapstructure:"cert_path"`
	CertArgs []string `yaml:"cert_args" mapstructure:"cert_args"`
}

func DefaultConfig() Config {
	return Config{
		Path:     "pnputil",
		Args:     []string{"/add-driver", "{{.InfPath}}", "/install"},
		Timeout:  5 * time.Minute,
		CertPath: "certutil",
		CertArgs: []string{"-addstore", "TrustedPublisher", "{{.CertName}}"},
	}
}

// Runner executes name with args and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Vars are the values available to argument templates.
type Vars struct {
	InfPath     string
	DestDir     string
	DriverType  string
	Description string
	HardwareID  string
	DeviceID    string
	Interface   uint8
	GUID        string
	CertName    string
}

type Installer struct {
	cfg      Config
	args     []*template.Template
	certArgs []*template.Template
	infName  string
	run      Runner
	logger   ports.Logger
}

type Option func(*Installer)

func WithRunner(r Runner) Option {
	return func(i *Installer) { i.run = r }
}

func NewInstaller(cfg Config, infName string, logger ports.Logger, opts ...Option) (*Installer, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.CodeConfigValidation, "installer command path cannot be empty")
	}
	if infName == "" {
		return nil, errors.New(errors.CodeConfigValidation, "INF name cannot be empty")
	}
	args, err := parseTemplates("args", cfg.Args)
	if err != nil {
		return nil, err
	}
	certArgs, err := parseTemplates("cert_args", cfg.CertArgs)
	if err != nil {
		return nil, err
	}

	inst := &Installer{
		cfg:      cfg,
		args:     args,
		certArgs: certArgs,
		infName:  infName,
		run:      execRunner,
		logger:   logger.WithFields(map[string]any{"component": "installer", "type": InstallerTypeCommand}),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst, nil
}

func parseTemplates(name string, raw []string) ([]*template.Template, error) {
	out := make([]*template.Template, len(raw))
	for i, arg := range raw {
		tmpl, err := template.New(fmt.Sprintf("%s[%d]", name, i)).Option("missingkey=error").Parse(arg)
		if err != nil {
			return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation,
				fmt.Sprintf("Invalid installer %s template %q", name, arg), "Check the template syntax in the installer configuration.")
		}
		out[i] = tmpl
	}
	return out, nil
}

func render(tmpls []*template.Template, vars Vars) ([]string, error) {
	out := make([]string, len(tmpls))
	for i, tmpl := range tmpls {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, vars); err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigValidation, fmt.Sprintf("failed to render %s", tmpl.Name()))
		}
		out[i] = buf.String()
	}
	return out, nil
}

func (i *Installer) Type() string { return InstallerTypeCommand }

func (i *Installer) Install(ctx context.Context, spec domain.DriverSpec, device *domain.DeviceIdentity, destDir string) error {
	vars := Vars{
		InfPath:     filepath.Join(destDir, i.infName),
		DestDir:     destDir,
		DriverType:  spec.Type.String(),
		Description: spec.Description,
		HardwareID:  spec.HardwareID(),
		GUID:        spec.DeviceInterfaceGUID,
		CertName:    spec.CertName,
	}
	if device != nil {
		vars.HardwareID = device.HardwareID
		vars.DeviceID = device.DeviceInstanceID
		vars.Interface = device.InterfaceNumber
	}

	args, err := render(i.args, vars)
	if err != nil {
		return err
	}
	return i.exec(ctx, errors.CodeInstallFailed, i.cfg.Path, args)
}

func (i *Installer) InstallCertificate(ctx context.Context, certName string) error {
	if i.cfg.CertPath == "" {
		i.logger.Warnf(ctx, "No certificate command configured, not installing %s", certName)
		return nil
	}
	args, err := render(i.certArgs, Vars{CertName: certName})
	if err != nil {
		return err
	}
	return i.exec(ctx, errors.CodeCertInstallFailed, i.cfg.CertPath, args)
}

func (i *Installer) exec(ctx context.Context, code errors.Code, path string, args []string) error {
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	i.logger.Debugf(ctx, "Running %s %s", path, strings.Join(args, " "))
	out, err := i.run(ctx, path, args...)
	if err == nil {
		i.logger.Debugf(ctx, "%s succeeded", path)
		return nil
	}

	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(ctx.Err(), code, fmt.Sprintf("%s timed out after %s", path, i.cfg.Timeout))
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	output := strings.TrimSpace(string(out))
	if len(output) > maxOutputInDetails {
		output = output[:maxOutputInDetails] + "..."
	}
	return errors.Wrap(err, code, fmt.Sprintf("%s failed", path)).
		WithDetails("exit_code=%d output=%q", exitCode, output)
}

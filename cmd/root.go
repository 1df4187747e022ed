package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/usb-driver-reconciler/internal/app"
	"github.com/olusolaa/usb-driver-reconciler/internal/config"
	apperrors "github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

var (
	cfgFile         string
	devicesOverride string
)

// exitError carries a non-zero exit status that is not an error worth printing.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var rootCmd = &cobra.Command{
	Use:   "usb-driver-reconciler",
	Short: "Installs userspace USB drivers listed in a driver catalog.",
	Long: `usb-driver-reconciler reads a driver catalog (one "driver_type,description,vid,pid,guid"
entry per line), extracts a driver package for each entry and installs it for every
attached device with a matching vendor and product id.

Devices that already have a driver are left alone unless --force is given. Entries with
no attached device are skipped unless --all is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if devicesOverride != "" {
			viper.Set(app.DevicesOverrideKey, devicesOverride)
		}

		application, bootstrapErr := app.BuildApplicationFromViper(cmd.Context(), viper.GetViper())
		if bootstrapErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Application initialization failed: %v\n", bootstrapErr)
			printUserFacing(bootstrapErr)
			return bootstrapErr
		}

		outcome, runErr := application.Run(cmd.Context())
		if runErr != nil {
			printUserFacing(runErr)
			return runErr
		}
		if code := outcome.ExitCode(); code != 0 {
			if outcome.HaltErr != nil {
				printUserFacing(outcome.HaltErr)
			}
			return exitError{code: code}
		}
		return nil
	},
}

func printUserFacing(err error) {
	userMsg, suggestion, ok := apperrors.GetUserFacingMessage(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
	if suggestion != "" {
		fmt.Fprintf(os.Stderr, "%s\n", suggestion)
	}
}

func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	os.Exit(1)
}

func init() {
	defaults := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .usb-driver-reconciler.yaml in . or $HOME)")
	flags.String("catalog", defaults.Catalog.Path, "Driver catalog path")
	flags.BoolP("force", "f", false, "Reinstall even when a device already has a driver")
	flags.BoolP("all", "a", false, "Install drivers for catalog entries with no attached device")
	flags.Bool("extract-only", false, "Extract the first driver package and stop")
	flags.Bool("continue-on-error", false, "Keep going when a driver package cannot be extracted")
	flags.Bool("strict-hex", false, "Reject vid/pid values that are not clean 16-bit hex numbers")
	flags.BoolP("silent", "s", false, "Suppress progress logging and the report")
	flags.String("log-level", string(defaults.Settings.LogLevel), "Log level (debug, info, warn, error)")
	flags.String("log-format", string(defaults.Settings.LogFormat), "Log format (text, json)")
	flags.String("reporter", defaults.Settings.ReporterType, "Report format (text, json, none)")
	flags.String("installer", defaults.Installer.Type, "Installer (command, dryrun)")
	flags.String("dest", defaults.Driver.ExtractDir, "Driver extraction directory")
	flags.StringVar(&devicesOverride, "devices", "", "Device source: sysfs, or snapshot=<file.yaml|file.json>")

	for flag, key := range app.FlagBindings {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	viper.SetEnvPrefix("USBDRV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".usb-driver-reconciler")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}
	return nil
}

package text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	apperrors "github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

// NewReporter writes to w, or to stdout when w is nil.
func NewReporter(cfg Config, w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	if f, ok := w.(*os.File); cfg.NoColor || !ok || !isTerminal(f) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: w,
		logger: logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, outcome domain.RunOutcome) error {
	if len(outcome.Results) == 0 && !outcome.Halted {
		fmt.Fprintln(r.writer, "No driver catalog entries processed.")
		return nil
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()

	fmt.Fprintln(tw, "Driver Reconciliation Report")
	fmt.Fprintln(tw, "============================")
	fmt.Fprintln(tw, "Status\tLine\tDriver\tDescription\tDevice\tDetails")
	fmt.Fprintln(tw, "------\t----\t------\t-----------\t------\t-------")

	for _, res := range outcome.Results {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		device := "-"
		if res.Device != nil {
			device = res.Device.String()
		}

		var statusStr, details string
		switch res.Action {
		case domain.ActionInstalled:
			statusStr = green("[INSTALLED]")
			details = "Driver installed."
			if res.Device == nil {
				details = "Driver installed with no attached device."
			}
		case domain.ActionSkippedExistingDriver:
			statusStr = cyan("[SKIPPED]")
			details = fmt.Sprintf("Device already uses %s.", res.Device.BoundDriver)
		case domain.ActionSkippedNoDevice:
			statusStr = yellow("[NO DEVICE]")
			details = "No attached device matches."
		case domain.ActionPreparedAborted:
			statusStr = magenta("[EXTRACTED]")
			details = "Driver files extracted, installation skipped."
		case domain.ActionFailed:
			statusStr = red("[FAILED]")
			details = describeError(res.Err)
		default:
			statusStr = "[UNKNOWN]"
			details = "Unknown action."
		}

		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", statusStr, res.Spec.Line, res.Spec.Type, res.Spec.Description, device, details)
	}

	counts := outcome.Counts()
	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Total Entries:\t%d\n", len(outcome.Results))
	fmt.Fprintf(tw, "Installed:\t%s\n", green(counts[domain.ActionInstalled]))
	fmt.Fprintf(tw, "Skipped (driver present):\t%s\n", cyan(counts[domain.ActionSkippedExistingDriver]))
	fmt.Fprintf(tw, "Skipped (no device):\t%s\n", yellow(counts[domain.ActionSkippedNoDevice]))
	fmt.Fprintf(tw, "Extracted only:\t%s\n", magenta(counts[domain.ActionPreparedAborted]))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(counts[domain.ActionFailed]))
	if outcome.Halted {
		fmt.Fprintf(tw, "Halted:\t%s\n", red(describeError(outcome.HaltErr)))
	}

	return nil
}

func describeError(err error) string {
	if err == nil {
		return "Unknown error."
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.IsUserFacing {
		return appErr.Message
	}
	return err.Error()
}

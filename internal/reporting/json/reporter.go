package json

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	apperrors "github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const ReporterTypeJSON = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Compact bool `yaml:"compact" mapstructure:"compact"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{
		config: cfg,
		writer: w,
		logger: logger,
	}, nil
}

type jsonReport struct {
	Summary jsonSummary      `json:"summary"`
	Results []jsonResultItem `json:"results"`
}

type jsonSummary struct {
	Total                 int    `json:"total"`
	Installed             int    `json:"installed"`
	SkippedExistingDriver int    `json:"skipped_existing_driver"`
	SkippedNoDevice       int    `json:"skipped_no_device"`
	PreparedAborted       int    `json:"prepared_aborted"`
	Failed                int    `json:"failed"`
	Halted                bool   `json:"halted"`
	HaltReason            string `json:"halt_reason,omitempty"`
	ExitCode              int    `json:"exit_code"`
}

type jsonResultItem struct {
	Action      domain.Action  `json:"action"`
	Line        int            `json:"line"`
	DriverType  string         `json:"driver_type"`
	Description string         `json:"description"`
	VendorID    string         `json:"vid"`
	ProductID   string         `json:"pid"`
	GUID        string         `json:"device_interface_guid"`
	Device      *jsonDevice    `json:"device,omitempty"`
	ErrorCode   apperrors.Code `json:"error_code,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type jsonDevice struct {
	HardwareID       string `json:"hardware_id"`
	DeviceInstanceID string `json:"device_id,omitempty"`
	Interface        uint8  `json:"interface"`
	BoundDriver      string `json:"driver,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, outcome domain.RunOutcome) error {
	counts := outcome.Counts()
	report := jsonReport{
		Summary: jsonSummary{
			Total:                 len(outcome.Results),
			Installed:             counts[domain.ActionInstalled],
			SkippedExistingDriver: counts[domain.ActionSkippedExistingDriver],
			SkippedNoDevice:       counts[domain.ActionSkippedNoDevice],
			PreparedAborted:       counts[domain.ActionPreparedAborted],
			Failed:                counts[domain.ActionFailed],
			Halted:                outcome.Halted,
			ExitCode:              outcome.ExitCode(),
		},
		Results: make([]jsonResultItem, 0, len(outcome.Results)),
	}
	if outcome.HaltErr != nil {
		report.Summary.HaltReason = outcome.HaltErr.Error()
	}

	for _, res := range outcome.Results {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}

		item := jsonResultItem{
			Action:      res.Action,
			Line:        res.Spec.Line,
			DriverType:  res.Spec.Type.String(),
			Description: res.Spec.Description,
			VendorID:    fmt.Sprintf("%04x", res.Spec.VendorID),
			ProductID:   fmt.Sprintf("%04x", res.Spec.ProductID),
			GUID:        res.Spec.DeviceInterfaceGUID,
		}
		if res.Device != nil {
			item.Device = &jsonDevice{
				HardwareID:       res.Device.HardwareID,
				DeviceInstanceID: res.Device.DeviceInstanceID,
				Interface:        res.Device.InterfaceNumber,
				BoundDriver:      res.Device.BoundDriver,
			}
		}
		if res.Err != nil {
			item.ErrorCode = apperrors.GetCode(res.Err)
			item.Error = res.Err.Error()
		}

		report.Results = append(report.Results, item)
	}

	encoder := json.NewEncoder(r.writer)
	if !r.config.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}

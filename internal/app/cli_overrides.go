package app

import (
	"strings"

	"github.com/olusolaa/usb-driver-reconciler/internal/adapters/devices/snapshot"
)

// FlagBindings maps command line flags to configuration keys.
var FlagBindings = map[string]string{
	"catalog":           "catalog.path",
	"strict-hex":        "catalog.strict_hex",
	"force":             "policy.force",
	"all":               "policy.all",
	"extract-only":      "policy.extract_only",
	"continue-on-error": "policy.continue_on_error",
	"silent":            "settings.silent",
	"log-level":         "settings.log_level",
	"log-format":        "settings.log_format",
	"reporter":          "settings.reporter",
	"installer":         "installer.type",
	"dest":              "driver.extract_dir",
}

// DevicesOverrideKey holds the raw --devices value.
const DevicesOverrideKey = "devices_override"

// parseDevicesOverride splits a --devices value such as "sysfs" or
// "snapshot=devices.yaml" into a lister type and an optional snapshot path.
func parseDevicesOverride(override string) (listerType, path string) {
	override = strings.TrimSpace(override)
	if override == "" {
		return "", ""
	}
	kind, rest, found := strings.Cut(override, "=")
	kind = strings.TrimSpace(kind)
	if !found {
		return kind, ""
	}
	rest = strings.TrimSpace(rest)
	if kind == "" && rest != "" {
		kind = snapshot.ListerTypeSnapshot
	}
	return kind, rest
}

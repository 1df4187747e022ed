package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeNotImplemented   Code = "NOT_IMPLEMENTED"

	// Catalog parsing
	CodeCatalogReadError  Code = "CATALOG_READ_ERROR"
	CodeInvalidDriverType Code = "INVALID_DRIVER_TYPE"
	CodeMissingField      Code = "MISSING_FIELD"
	CodeInvalidHexField   Code = "INVALID_HEX_FIELD"

	// Collaborator results
	CodePrepareFailed     Code = "PREPARE_FAILED"
	CodeCertInstallFailed Code = "CERT_INSTALL_FAILED"
	CodeEnumerationFailed Code = "ENUMERATION_FAILED"
	CodeInstallFailed     Code = "INSTALL_FAILED"
	CodeExtractOnly       Code = "EXTRACT_ONLY"

	CodeReportError Code = "REPORT_ERROR"
)

func (c Code) String() string {
	return string(c)
}

// IsParseCode reports whether the code belongs to the catalog parse taxonomy.
func (c Code) IsParseCode() bool {
	switch c {
	case CodeInvalidDriverType, CodeMissingField, CodeInvalidHexField:
		return true
	}
	return false
}

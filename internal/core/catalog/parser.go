// Package catalog turns driver catalog lines into DriverSpecs.
//
// A catalog line has five comma separated fields:
//
//	driver_type,description,vid_hex,pid_hex,device_interface_guid
//
// Lines whose first byte is '#' are comments. Extra fields are ignored.
package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	apperrors "github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const (
	commentPrefix = "#"
	fieldSep      = ","
)

type Field int

const (
	FieldDriverType Field = iota
	FieldDescription
	FieldVendorID
	FieldProductID
	FieldGUID
)

var fieldNames = [...]string{"driver type", "description", "vid", "pid", "guid"}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "unknown"
}

// HexMode selects how malformed vid/pid tokens are handled.
type HexMode int

const (
	// HexLenient parses the longest hex prefix like C's strtol and yields 0 when there
	// is none. This is what existing catalogs were written against.
	HexLenient HexMode = iota
	// HexStrict rejects any token that is not a complete 16-bit hex number.
	HexStrict
)

type ParseOptions struct {
	HexMode HexMode
	// CertName is copied into every spec.
	CertName string
	// OnCoerce, if set, is called when lenient parsing changed a vid/pid token.
	OnCoerce func(field Field, token string, value uint16)
}

// ParseError describes a rejected catalog line.
type ParseError struct {
	Code     apperrors.Code
	Line     int
	Field    Field
	Token    string
	Original string
}

func (e *ParseError) Error() string {
	switch e.Code {
	case apperrors.CodeInvalidDriverType:
		return fmt.Sprintf("line %d: invalid driver type %q", e.Line, e.Token)
	case apperrors.CodeInvalidHexField:
		return fmt.Sprintf("line %d: invalid %s %q", e.Line, e.Field, e.Token)
	default:
		return fmt.Sprintf("line %d: %s missing", e.Line, e.Field)
	}
}

func (e *ParseError) appError() *apperrors.AppError {
	var msg string
	switch e.Code {
	case apperrors.CodeInvalidDriverType:
		msg = fmt.Sprintf("Invalid driver type %q", e.Token)
	case apperrors.CodeInvalidHexField:
		msg = fmt.Sprintf("Invalid %s %q", e.Field, e.Token)
	default:
		msg = fmt.Sprintf("%s missing", e.Field)
	}
	appErr := apperrors.WrapUserFacing(e, e.Code, msg, fmt.Sprintf("On the line %d:\n%s", e.Line, e.Original))
	appErr.InternalDetails = e.Original
	return appErr
}

// IsComment reports whether the line produces no spec.
func IsComment(line string) bool {
	return strings.HasPrefix(line, commentPrefix)
}

// ParseLine parses one raw catalog line. Comment and blank lines return (nil, nil).
// Errors wrap a *ParseError.
func ParseLine(line string, lineNo int, opts ParseOptions) (*domain.DriverSpec, error) {
	original := strings.TrimRight(line, "\r\n")
	if IsComment(original) || strings.TrimSpace(original) == "" {
		return nil, nil
	}

	tokens := strings.Split(original, fieldSep)
	field := func(f Field) (string, bool) {
		if int(f) >= len(tokens) {
			return "", false
		}
		tok := strings.TrimSpace(tokens[f])
		return tok, tok != ""
	}
	fail := func(code apperrors.Code, f Field, tok string) error {
		return (&ParseError{Code: code, Line: lineNo, Field: f, Token: tok, Original: original}).appError()
	}

	typeTok, _ := field(FieldDriverType)
	driverType, ok := domain.ParseDriverType(typeTok)
	if !ok {
		return nil, fail(apperrors.CodeInvalidDriverType, FieldDriverType, typeTok)
	}

	values := make([]string, FieldGUID+1)
	for f := FieldDescription; f <= FieldGUID; f++ {
		tok, present := field(f)
		if !present {
			return nil, fail(apperrors.CodeMissingField, f, "")
		}
		values[f] = tok
	}

	vid, err := parseHex(values[FieldVendorID], FieldVendorID, opts)
	if err != nil {
		return nil, fail(apperrors.CodeInvalidHexField, FieldVendorID, values[FieldVendorID])
	}
	pid, err := parseHex(values[FieldProductID], FieldProductID, opts)
	if err != nil {
		return nil, fail(apperrors.CodeInvalidHexField, FieldProductID, values[FieldProductID])
	}

	return &domain.DriverSpec{
		Type:                driverType,
		Description:         values[FieldDescription],
		VendorID:            vid,
		ProductID:           pid,
		DeviceInterfaceGUID: values[FieldGUID],
		CertName:            opts.CertName,
		Line:                lineNo,
	}, nil
}

func parseHex(tok string, f Field, opts ParseOptions) (uint16, error) {
	if opts.HexMode == HexStrict {
		v, err := strconv.ParseUint(trimHexPrefix(tok), 16, 16)
		if err != nil {
			return 0, err
		}
		return uint16(v), nil
	}

	v, exact := lenientHex(tok)
	if !exact && opts.OnCoerce != nil {
		opts.OnCoerce(f, tok, v)
	}
	return v, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// lenientHex mirrors (unsigned short)strtol(s, NULL, 16). exact is false when any
// input was ignored or the value did not fit in 16 bits.
func lenientHex(s string) (value uint16, exact bool) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	if i+1 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') && i+2 < len(s) && isHexDigit(s[i+2]) {
		i += 2
	}

	start := i
	var acc uint64
	overflow := false
	for ; i < len(s) && isHexDigit(s[i]); i++ {
		if acc > math.MaxInt64>>4 {
			overflow = true
			continue
		}
		acc = acc<<4 | uint64(hexVal(s[i]))
	}
	if i == start {
		return 0, false
	}

	var n int64
	switch {
	case overflow && neg:
		n = math.MinInt64
	case overflow:
		n = math.MaxInt64
	case neg:
		n = -int64(acc)
	default:
		n = int64(acc)
	}
	value = uint16(n)
	exact = i == len(s) && !neg && !overflow && acc <= math.MaxUint16
	return value, exact
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

package catalog_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/catalog"
	"github.com/olusolaa/usb-driver-reconciler/internal/core/domain"
	apperrors "github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

func TestParseLine_Valid(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected domain.DriverSpec
	}{
		{
			name: "winusb",
			line: "winusb,Foo,2341,0041,{GUID}",
			expected: domain.DriverSpec{
				Type: domain.DriverWinUSB, Description: "Foo",
				VendorID: 0x2341, ProductID: 0x0041, DeviceInterfaceGUID: "{GUID}", Line: 7,
			},
		},
		{
			name: "libusb with whitespace and newline",
			line: " libusb , Bootloader ,03eb, 2ff4 , {9d6bc3c2-3bb0-4e6b-a5b2-7a13b1f2f3b8}\r\n",
			expected: domain.DriverSpec{
				Type: domain.DriverLibUSB0, Description: "Bootloader",
				VendorID: 0x03eb, ProductID: 0x2ff4, DeviceInterfaceGUID: "{9d6bc3c2-3bb0-4e6b-a5b2-7a13b1f2f3b8}", Line: 7,
			},
		},
		{
			name: "libusbk with extra fields ignored",
			line: "libusbk,B,2,2,{G2},unused,more",
			expected: domain.DriverSpec{
				Type: domain.DriverLibUSBK, Description: "B",
				VendorID: 2, ProductID: 2, DeviceInterfaceGUID: "{G2}", Line: 7,
			},
		},
		{
			name: "hex prefix",
			line: "winusb,A,0x1209,0X2301,{G}",
			expected: domain.DriverSpec{
				Type: domain.DriverWinUSB, Description: "A",
				VendorID: 0x1209, ProductID: 0x2301, DeviceInterfaceGUID: "{G}", Line: 7,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := catalog.ParseLine(tc.line, 7, catalog.ParseOptions{})
			require.NoError(t, err)
			require.NotNil(t, spec)
			if diff := cmp.Diff(tc.expected, *spec); diff != "" {
				t.Errorf("spec mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLine_CommentsAndBlank(t *testing.T) {
	for _, line := range []string{"# comment", "#", "#winusb,Foo,2341,0041,{GUID}", "", "   ", "\n"} {
		spec, err := catalog.ParseLine(line, 1, catalog.ParseOptions{})
		assert.NoError(t, err, "line %q", line)
		assert.Nil(t, spec, "line %q", line)
	}
}

func TestParseLine_InvalidDriverType(t *testing.T) {
	for _, line := range []string{"usbser,Foo,1,1,{G}", "WinUSB,Foo,1,1,{G}", ",Foo,1,1,{G}", "  # indented comment"} {
		t.Run(line, func(t *testing.T) {
			spec, err := catalog.ParseLine(line, 4, catalog.ParseOptions{})
			require.Error(t, err)
			assert.Nil(t, spec)
			assert.Equal(t, apperrors.CodeInvalidDriverType, apperrors.GetCode(err))

			var parseErr *catalog.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 4, parseErr.Line)
			assert.Equal(t, line, parseErr.Original)
		})
	}
}

func TestParseLine_MissingField(t *testing.T) {
	testCases := []struct {
		line  string
		field catalog.Field
	}{
		{"winusb", catalog.FieldDescription},
		{"winusb,", catalog.FieldDescription},
		{"winusb, ,1,1,{G}", catalog.FieldDescription},
		{"winusb,Foo", catalog.FieldVendorID},
		{"winusb,Foo,1", catalog.FieldProductID},
		{"winusb,Foo,1,1", catalog.FieldGUID},
		{"winusb,Foo,1,1,  \n", catalog.FieldGUID},
		{"winusb,,,,", catalog.FieldDescription},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			spec, err := catalog.ParseLine(tc.line, 2, catalog.ParseOptions{})
			require.Error(t, err)
			assert.Nil(t, spec)
			assert.Equal(t, apperrors.CodeMissingField, apperrors.GetCode(err))

			var parseErr *catalog.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tc.field, parseErr.Field)

			msg, suggestion, ok := apperrors.GetUserFacingMessage(err)
			assert.True(t, ok)
			assert.Equal(t, tc.field.String()+" missing", msg)
			assert.Contains(t, suggestion, "On the line 2:")
		})
	}
}

func TestParseLine_LenientHex(t *testing.T) {
	testCases := []struct {
		token   string
		value   uint16
		coerced bool
	}{
		{"2341", 0x2341, false},
		{"0x2341", 0x2341, false},
		{"zz", 0, true},
		{"12zz", 0x12, true},
		{"0x", 0, true},
		{"12345", 0x2345, true},
		{"-1", 0xffff, true},
		{"ffffffffffffffffffff", 0xffff, true},
	}

	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			var coerced []catalog.Field
			opts := catalog.ParseOptions{
				OnCoerce: func(f catalog.Field, tok string, v uint16) {
					assert.Equal(t, tc.token, tok)
					assert.Equal(t, tc.value, v)
					coerced = append(coerced, f)
				},
			}
			spec, err := catalog.ParseLine("winusb,Foo,"+tc.token+",1,{G}", 1, opts)
			require.NoError(t, err)
			assert.Equal(t, tc.value, spec.VendorID)
			if tc.coerced {
				assert.Equal(t, []catalog.Field{catalog.FieldVendorID}, coerced)
			} else {
				assert.Empty(t, coerced)
			}
		})
	}
}

func TestParseLine_StrictHex(t *testing.T) {
	opts := catalog.ParseOptions{HexMode: catalog.HexStrict}

	spec, err := catalog.ParseLine("winusb,Foo,0x2341,41,{G}", 1, opts)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x2341), spec.VendorID)
	assert.Equal(t, uint16(0x41), spec.ProductID)

	for _, line := range []string{"winusb,Foo,zz,41,{G}", "winusb,Foo,1,12345,{G}", "winusb,Foo,1,-1,{G}"} {
		_, err := catalog.ParseLine(line, 9, opts)
		require.Error(t, err, line)
		assert.Equal(t, apperrors.CodeInvalidHexField, apperrors.GetCode(err))
	}
}

func TestParseLine_CertName(t *testing.T) {
	spec, err := catalog.ParseLine("winusb,Foo,1,1,{G}", 1, catalog.ParseOptions{CertName: "usb_driver.cer"})
	require.NoError(t, err)
	assert.Equal(t, "usb_driver.cer", spec.CertName)
}

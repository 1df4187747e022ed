package domain

import "fmt"

// DriverType is the userspace driver a catalog entry asks for.
type DriverType int

const (
	DriverWinUSB DriverType = iota
	DriverLibUSB0
	DriverLibUSBK
)

var driverTokens = map[string]DriverType{
	"winusb":  DriverWinUSB,
	"libusb":  DriverLibUSB0,
	"libusbk": DriverLibUSBK,
}

// ParseDriverType maps a catalog token to a DriverType. Matching is case-sensitive.
func ParseDriverType(token string) (DriverType, bool) {
	dt, ok := driverTokens[token]
	return dt, ok
}

func (d DriverType) String() string {
	switch d {
	case DriverWinUSB:
		return "WinUSB"
	case DriverLibUSB0:
		return "libusb0"
	case DriverLibUSBK:
		return "libusbK"
	default:
		return fmt.Sprintf("DriverType(%d)", int(d))
	}
}

// Token is the catalog spelling of the driver type.
func (d DriverType) Token() string {
	for token, dt := range driverTokens {
		if dt == d {
			return token
		}
	}
	return ""
}

func (d DriverType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DriverSpec is one parsed catalog entry. It is never modified after parsing.
type DriverSpec struct {
	Type                DriverType
	Description         string
	VendorID            uint16
	ProductID           uint16
	InterfaceNumber     uint8
	DeviceInterfaceGUID string
	// CertName names a certificate to trust before installing. Empty means none.
	CertName string
	// Line is the 1-based catalog line the spec came from.
	Line int
}

// HardwareID is the Windows-style identity the spec targets.
func (s DriverSpec) HardwareID() string {
	return fmt.Sprintf(`USB\VID_%04X&PID_%04X`, s.VendorID, s.ProductID)
}

func (s DriverSpec) String() string {
	return fmt.Sprintf("%s %q %04x:%04x (line %d)", s.Type, s.Description, s.VendorID, s.ProductID, s.Line)
}

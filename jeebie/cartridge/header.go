package cartridge

import (
	"fmt"
	"strings"
)

const (
	entryPointAddress       = 0x100
	titleAddress            = 0x134
	titleLength             = 16
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseeCodeAddress  = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseeCodeAddress  = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E

	// HeaderEnd is the first byte past the cartridge header.
	HeaderEnd = 0x150
)

// Header holds the decoded cartridge header fields.
type Header struct {
	Title            string
	ManufacturerCode string
	CGBFlag          byte
	SGBFlag          byte
	NewLicenseeCode  string
	OldLicenseeCode  byte
	CartridgeType    byte
	ROMSizeCode      byte
	RAMSizeCode      byte
	DestinationCode  byte
	Version          byte
	HeaderChecksum   byte
	GlobalChecksum   uint16
}

func parseHeader(data []byte) Header {
	return Header{
		Title:            cleanTitle(data[titleAddress : titleAddress+titleLength]),
		ManufacturerCode: cleanTitle(data[manufacturerCodeAddress : manufacturerCodeAddress+4]),
		CGBFlag:          data[cgbFlagAddress],
		SGBFlag:          data[sgbFlagAddress],
		NewLicenseeCode:  cleanTitle(data[newLicenseeCodeAddress : newLicenseeCodeAddress+2]),
		OldLicenseeCode:  data[oldLicenseeCodeAddress],
		CartridgeType:    data[cartridgeTypeAddress],
		ROMSizeCode:      data[romSizeAddress],
		RAMSizeCode:      data[ramSizeAddress],
		DestinationCode:  data[destinationCodeAddress],
		Version:          data[versionNumberAddress],
		HeaderChecksum:   data[headerChecksumAddress],
		GlobalChecksum:   uint16(data[globalChecksumAddress])<<8 | uint16(data[globalChecksumAddress+1]),
	}
}

// cleanTitle stops at the first NUL and drops non-printable bytes.
func cleanTitle(raw []byte) string {
	var sb strings.Builder
	for _, b := range raw {
		if b == 0 {
			break
		}
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		}
	}
	return strings.TrimSpace(sb.String())
}

// computeHeaderChecksum mirrors the boot ROM check: x = x - byte - 1 over 0x134-0x14C.
func computeHeaderChecksum(data []byte) byte {
	var sum byte
	for i := titleAddress; i < headerChecksumAddress; i++ {
		sum = sum - data[i] - 1
	}
	return sum
}

// ROMSize returns the ROM size in bytes declared by the header, or 0 if the code is unknown.
func (h Header) ROMSize() int {
	if h.ROMSizeCode > 0x08 {
		return 0
	}
	return 0x8000 << h.ROMSizeCode
}

// RAMSize returns the external RAM size in bytes declared by the header.
func (h Header) RAMSize() int {
	switch h.RAMSizeCode {
	case 0x01:
		return 0x800
	case 0x02:
		return 0x2000
	case 0x03:
		return 0x8000
	case 0x04:
		return 0x20000
	case 0x05:
		return 0x10000
	default:
		return 0
	}
}

// SupportsCGB reports whether the CGB flag advertises color functions.
func (h Header) SupportsCGB() bool { return h.CGBFlag&0x80 != 0 }

// SupportsSGB reports whether the SGB flag is set.
func (h Header) SupportsSGB() bool { return h.SGBFlag == 0x03 }

// Licensee returns the licensee code, preferring the new two character code when the old one says so.
func (h Header) Licensee() string {
	if h.OldLicenseeCode == 0x33 {
		return h.NewLicenseeCode
	}
	return fmt.Sprintf("%02X", h.OldLicenseeCode)
}

// Destination returns "Japan" or "Overseas".
func (h Header) Destination() string {
	if h.DestinationCode == 0x00 {
		return "Japan"
	}
	return "Overseas"
}

package bsdl

import (
	"fmt"
	"strings"
)

// IDCode is a decoded IEEE 1149.1 device identification register.
type IDCode struct {
	Raw          uint32
	Version      uint8  // bits 31:28
	PartNumber   uint16 // bits 27:12
	Manufacturer uint16 // bits 11:1, JEP106 bank and code
}

// ParseIDCode decodes the 32-character bit pattern of an IDCODE_REGISTER
// attribute, most significant bit first. Don't-care bits (X) read as zero;
// whitespace and underscores are ignored.
func ParseIDCode(pattern string) (IDCode, error) {
	bits := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '&', '"':
			return -1
		}
		return r
	}, pattern)
	if len(bits) != 32 {
		return IDCode{}, fmt.Errorf("idcode %q has %d bits, want 32", pattern, len(bits))
	}

	var raw uint32
	for _, r := range bits {
		raw <<= 1
		switch r {
		case '1':
			raw |= 1
		case '0', 'x', 'X':
		default:
			return IDCode{}, fmt.Errorf("idcode %q: invalid bit %q", pattern, r)
		}
	}
	if raw&1 != 1 {
		return IDCode{}, fmt.Errorf("idcode %q: bit 0 must be 1", pattern)
	}
	return IDCode{
		Raw:          raw,
		Version:      uint8(raw >> 28),
		PartNumber:   uint16(raw >> 12),
		Manufacturer: uint16(raw>>1) & 0x7ff,
	}, nil
}

func (id IDCode) String() string { return fmt.Sprintf("0x%08X", id.Raw) }

// ManufacturerName returns the JEP106 name of the manufacturer, if known.
func (id IDCode) ManufacturerName() (string, bool) {
	name, ok := jep106[id.Manufacturer]
	return name, ok
}

// jep106 holds the manufacturers commonly found in BSDL files.
var jep106 = map[uint16]string{
	0x001: "AMD",
	0x009: "Intel",
	0x00e: "Freescale",
	0x00f: "National Semiconductor",
	0x010: "NEC",
	0x015: "NXP (Philips)",
	0x017: "Texas Instruments",
	0x018: "Toshiba",
	0x01c: "Mitsubishi",
	0x01f: "Atmel",
	0x020: "STMicroelectronics",
	0x025: "Analog Devices",
	0x02e: "Cypress",
	0x031: "Xilinx",
	0x03d: "Altera",
	0x041: "Lattice",
	0x049: "Infineon",
	0x06e: "Microchip",
	0x093: "ARM",
	0x0b7: "Espressif",
	0x13b: "Nordic Semiconductor",
	0x1f1: "Raspberry Pi",
}

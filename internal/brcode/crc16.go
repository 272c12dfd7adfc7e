package brcode

import "fmt"

// CRC-16/CCITT-FALSE parameters, as required by the EMV QRCPS standard:
// init 0xFFFF, polynomial 0x1021, MSB-first, no reflection, no final XOR.
const (
	crcInit uint16 = 0xFFFF
	crcPoly uint16 = 0x1021
)

// CRC16 computes the CRC-16/CCITT-FALSE checksum of s and returns it as
// four uppercase hex digits. The payload is ASCII-only after normalization,
// so processing the raw bytes matches processing each character's low byte.
func CRC16(s string) string {
	crc := crcInit
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}

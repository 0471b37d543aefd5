package bme280

// The humidity coefficients H4 and H5 are 12 bit signed values packed into
// three registers:
//
//	0xE4  H4[11:4]
//	0xE5  H5[3:0] << 4 | H4[3:0]
//	0xE6  H5[11:4]
//
// The register holding the high eight bits carries the sign.

// signExtend12 combines a signed high byte and a low nibble into a 12 bit
// two's complement value. The byte is placed in bits 31..24 of a 32 bit
// word and arithmetically shifted right by 20, which leaves it in bits
// 11..4 with the sign copied into bits 31..12. The nibble fills bits 3..0.
func signExtend12(msb, nibble byte) int16 {
	hi := int32(uint32(msb)<<24) >> 20
	return int16(hi | int32(nibble&0x0f))
}

// UnpackH4H5 decodes H4 and H5 from the raw contents of registers 0xE4,
// 0xE5 and 0xE6.
func UnpackH4H5(e4, e5, e6 byte) (h4, h5 int16) {
	h4 = signExtend12(e4, e5&0x0f)
	h5 = signExtend12(e6, e5>>4)
	return h4, h5
}

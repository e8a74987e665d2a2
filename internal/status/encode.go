// internal/status/encode.go
package status

import "math"

// Block is the full register view of the bridge state.
type Block struct {
	Status   Snapshot
	Function uint16
	Value    float64
	Samples  uint32
	Ident    string
}

// Encode converts a Block into the full status register block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(b Block) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = b.Status.Health
	regs[SlotLastErrorCode] = b.Status.LastErrorCode
	regs[SlotFunction] = b.Function

	v := EncodeValue(b.Value)
	regs[SlotValue] = v[0]
	regs[SlotValue+1] = v[1]

	regs[SlotSamples] = uint16(b.Samples >> 16)
	regs[SlotSamples+1] = uint16(b.Samples)

	copy(regs[SlotIdentStart:], EncodeIdent(b.Ident))

	return regs
}

// EncodeValue packs v as float32, high word first.
func EncodeValue(v float64) []uint16 {
	bits := math.Float32bits(float32(v))
	return []uint16{uint16(bits >> 16), uint16(bits)}
}

// EncodeIdent packs up to IdentMaxChars ASCII characters into
// SlotIdentSlots registers, two bytes per register, big-endian.
func EncodeIdent(s string) []uint16 {
	out := make([]uint16, SlotIdentSlots)

	b := []byte(s)
	if len(b) > IdentMaxChars {
		b = b[:IdentMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < IdentMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

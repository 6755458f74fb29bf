package xfsfmt

import (
	"encoding/binary"

	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
)

// ExtentSize is the fixed width of a packed extent record.
const ExtentSize = 16

// Extent is a decoded 16-byte packed extent: a preallocation flag, the
// logical offset within the file (blocks), the absolute physical start
// block, and the run length (blocks).
type Extent struct {
	Preallocated bool
	LogicalOffset uint64 // 54 bits
	PhysicalStart uint64 // 52 bits
	Length        uint32 // 21 bits
}

// DecodeExtent unpacks a 16-byte big-endian bit-packed extent tuple.
//
// Layout (bit 0 = MSB of the first byte):
//   bit 0        preallocation flag
//   bits 1-54    logical offset
//   bits 55-106  physical start block
//   bits 107-127 length
//
// This is expressed as two straight 64-bit big-endian reads rather than the
// architecture-specific pointer-cast-and-byte-swap the reference
// implementation used, since Go has no native 128-bit integer.
func DecodeExtent(data []byte) (Extent, error) {
	const op = "xfsfmt.DecodeExtent"
	if len(data) < ExtentSize {
		return Extent{}, recovererr.New(recovererr.InvalidRange, op, nil)
	}

	const (
		offsetBits = 54
		startBits  = 52
		lenBits    = 21
		startHiBits = 9 // top bits of PhysicalStart that live in hi's low bits
	)
	maskOffset := uint64(1)<<offsetBits - 1
	maskStartHi := uint64(1)<<startHiBits - 1
	maskLen := uint32(1)<<lenBits - 1

	hi := binary.BigEndian.Uint64(data[0:8])
	lo := binary.BigEndian.Uint64(data[8:16])

	var e Extent
	e.Preallocated = (hi>>63)&1 != 0
	e.LogicalOffset = (hi >> 9) & maskOffset
	e.PhysicalStart = ((hi & maskStartHi) << (startBits - startHiBits)) | (lo >> (64 - (startBits - startHiBits)))
	e.Length = uint32(lo) & maskLen

	return e, nil
}

// EncodeExtent packs an extent back into its 16-byte on-disk form. Used by
// round-trip tests and never by the decoder itself.
func EncodeExtent(e Extent) []byte {
	const (
		offsetBits  = 54
		startBits   = 52
		lenBits     = 21
		startHiBits = 9
		startLoBits = startBits - startHiBits // 43
	)
	maskOffset := uint64(1)<<offsetBits - 1
	maskStartHi := uint64(1)<<startHiBits - 1
	maskStartLo := uint64(1)<<startLoBits - 1
	maskLen := uint64(1)<<lenBits - 1

	out := make([]byte, ExtentSize)

	var hi uint64
	if e.Preallocated {
		hi |= 1 << 63
	}
	hi |= (e.LogicalOffset & maskOffset) << 9
	hi |= (e.PhysicalStart >> startLoBits) & maskStartHi

	lo := (e.PhysicalStart & maskStartLo) << (64 - startLoBits)
	lo |= uint64(e.Length) & maskLen

	binary.BigEndian.PutUint64(out[0:8], hi)
	binary.BigEndian.PutUint64(out[8:16], lo)
	return out
}

// Valid reports whether the extent's physical range fits on a device with
// totalBlocks blocks, and that it is non-degenerate (§4.5 extent test).
func (e Extent) Valid(totalBlocks uint64) bool {
	if e.PhysicalStart == 0 || e.Length == 0 {
		return false
	}
	return e.PhysicalStart+uint64(e.Length) <= totalBlocks
}

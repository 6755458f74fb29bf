// Package xfsfmt decodes the raw, big-endian on-disk structures of an XFS
// filesystem: superblocks, inode cores, packed extents, short-form
// directories and local extended-attribute blocks. Every decoder here
// borrows its input buffer; none retain or mutate it.
package xfsfmt

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
)

// reader wraps a borrowed byte slice plus the op name its range errors
// carry, extracting fixed-width big-endian fields at explicit offsets the
// way the teacher's parseXxx helpers walk raw bytes.
type reader struct {
	data []byte
	op   string
}

func newReader(op string, data []byte) *reader {
	return &reader{data: data, op: op}
}

func (r *reader) require(offset, width int) error {
	if offset < 0 || width < 0 || offset+width > len(r.data) {
		return recovererr.New(recovererr.InvalidRange, r.op,
			fmt.Errorf("field at offset %d width %d exceeds buffer of %d bytes", offset, width, len(r.data)))
	}
	return nil
}

func (r *reader) u8(offset int) (uint8, error) {
	if err := r.require(offset, 1); err != nil {
		return 0, err
	}
	return r.data[offset], nil
}

func (r *reader) u16(offset int) (uint16, error) {
	if err := r.require(offset, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.data[offset : offset+2]), nil
}

func (r *reader) u32(offset int) (uint32, error) {
	if err := r.require(offset, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.data[offset : offset+4]), nil
}

func (r *reader) u64(offset int) (uint64, error) {
	if err := r.require(offset, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.data[offset : offset+8]), nil
}

func (r *reader) i64(offset int) (int64, error) {
	v, err := r.u64(offset)
	return int64(v), err
}

func (r *reader) bytes(offset, width int) ([]byte, error) {
	if err := r.require(offset, width); err != nil {
		return nil, err
	}
	out := make([]byte, width)
	copy(out, r.data[offset:offset+width])
	return out, nil
}

// IsZero reports whether a strip-sized (or any) slice is entirely zero.
func IsZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// DumpStrip renders a 16-byte window as a hex-dump line, in the style of
// the reference implementation's DUMP_STRIP macro. Intended for Debug-level
// logging only.
func DumpStrip(offset int, data []byte) string {
	end := offset + 16
	if end > len(data) {
		end = len(data)
	}
	return fmt.Sprintf("%08x: % x", offset, data[offset:end])
}

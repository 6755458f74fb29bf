package xfsfmt

import "unicode"

// XattrEntry is one decoded local extended-attribute entry.
type XattrEntry struct {
	Flags uint8
	Name  []byte
	Value []byte
}

// xattrHead is the 4-byte self-delimiting header of a local xattr block.
type xattrHead struct {
	totalSize uint16
	count     uint8
	padding   uint8
}

// isXattrHead validates that data begins with a plausible xattr block
// header, per §4.5/§4.6: total size must be non-zero and not exceed the
// available data, and the padding count must be small (≤ 8).
func isXattrHead(data []byte) (xattrHead, bool) {
	if len(data) < 4 {
		return xattrHead{}, false
	}
	r := newReader("xfsfmt.isXattrHead", data)
	size, err := r.u16(0)
	if err != nil || size == 0 || int(size) > len(data) {
		return xattrHead{}, false
	}
	count, err := r.u8(2)
	if err != nil {
		return xattrHead{}, false
	}
	pad, err := r.u8(3)
	if err != nil || pad > 8 {
		return xattrHead{}, false
	}
	return xattrHead{totalSize: size, count: count, padding: pad}, true
}

// isPrintable is the "printable" predicate §4.6 requires of name/value
// bytes before a candidate block is accepted.
func isPrintable(b []byte) bool {
	for _, c := range b {
		if c == 0 {
			return false
		}
		if c >= 0x80 {
			continue // allow non-ASCII UTF-8 continuation bytes, as real filenames often carry them
		}
		if !unicode.IsPrint(rune(c)) && c != '\t' {
			return false
		}
	}
	return true
}

// DecodeLocalXattrs parses data as a local extended-attribute block,
// returning every entry it can decode. It stops cleanly (without error) on
// the first zero-length name+value pair, per §4.6, returning whatever
// entries were decoded before that point.
func DecodeLocalXattrs(data []byte) ([]XattrEntry, bool) {
	head, ok := isXattrHead(data)
	if !ok {
		return nil, false
	}

	var entries []XattrEntry
	offset := 4
	for i := 0; i < int(head.count); i++ {
		if offset+3 > len(data) {
			break
		}
		nameLen := int(data[offset])
		valLen := int(data[offset+1])
		flags := data[offset+2]

		if nameLen == 0 && valLen == 0 {
			break
		}

		endByte := offset + 3 + nameLen + int(head.padding) + valLen - 1
		if endByte >= int(head.totalSize) || endByte >= len(data) {
			break
		}

		name := data[offset+3 : offset+3+nameLen]
		if !isPrintable(name) {
			break
		}
		valStart := offset + 3 + nameLen + int(head.padding)
		value := data[valStart : valStart+valLen]
		if !isPrintable(value) {
			break
		}

		entries = append(entries, XattrEntry{
			Flags: flags,
			Name:  append([]byte(nil), name...),
			Value: append([]byte(nil), value...),
		})

		offset = endByte + 1
	}

	return entries, true
}

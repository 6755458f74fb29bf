package xfsfmt

import "github.com/deploymenttheory/xfs-undelete/internal/recovererr"

// DirEntry is one decoded short-form packed-directory entry.
type DirEntry struct {
	Name    string
	Type    FileType
	Address uint64
	Deleted bool
}

// Directory is a decoded short-form packed directory: its header plus the
// entries that followed it, and the total on-disk byte size it occupied
// (header + all entries), needed by the forensic reconstructor to fast
// forward its strip cursor past the directory.
type Directory struct {
	Entries64Bit  bool
	EntryCount    uint8
	ParentAddress uint64
	Entries       []DirEntry
	DirSize       int
}

// deletedAddressMarker reports whether the first two bytes of an encoded
// inode-address field carry the 0xFFFF "this entry was deleted" marker.
// Only the top two bytes are checked; the next two hold the free-gap
// length and are not validated.
func deletedAddressMarker(address uint64, is64Bit bool) bool {
	if is64Bit {
		return (address>>48)&0xffff == 0xffff
	}
	return (address>>16)&0xffff == 0xffff
}

// DecodeShortFormDirectory parses data as a packed short-form directory:
// a 6- or 10-byte header, followed by entryCount entries. totalDiskBytes
// bounds the parent-address and per-entry address validity checks.
func DecodeShortFormDirectory(data []byte, totalDiskBytes uint64) (*Directory, error) {
	const op = "xfsfmt.DecodeShortFormDirectory"
	if len(data) < 6 {
		return nil, recovererr.New(recovererr.InvalidRange, op, nil)
	}

	entryCount := data[0]
	entries64 := data[1] != 0
	if entries64 && data[1] > entryCount {
		return nil, recovererr.New(recovererr.BadGeometry, op, nil)
	}

	var parentAddress uint64
	headerSize := 6
	if entries64 {
		r := newReader(op, data)
		v, err := r.u64(2)
		if err != nil {
			return nil, err
		}
		parentAddress = v
		headerSize = 10
	} else {
		r := newReader(op, data)
		v, err := r.u32(2)
		if err != nil {
			return nil, err
		}
		parentAddress = uint64(v)
	}
	if parentAddress > totalDiskBytes {
		return nil, recovererr.New(recovererr.BadGeometry, op, nil)
	}

	dir := &Directory{
		Entries64Bit:  entries64,
		EntryCount:    entryCount,
		ParentAddress: parentAddress,
		DirSize:       headerSize,
	}

	cursor := headerSize
	for i := 0; i < int(entryCount); i++ {
		entry, consumed, err := decodeDirEntry(data[cursor:], entries64, totalDiskBytes)
		if err != nil {
			return nil, err
		}
		dir.Entries = append(dir.Entries, entry)
		dir.DirSize += consumed
		cursor += consumed
	}

	return dir, nil
}

// decodeDirEntry parses one entry: name length (1 byte), reserved/offset
// (2 bytes), name bytes, file-type byte, inode address (4 or 8 bytes).
func decodeDirEntry(data []byte, entries64 bool, totalDiskBytes uint64) (DirEntry, int, error) {
	const op = "xfsfmt.decodeDirEntry"
	if len(data) < 4 {
		return DirEntry{}, 0, recovererr.New(recovererr.InvalidRange, op, nil)
	}

	nameLen := int(data[0])
	addrWidth := 4
	if entries64 {
		addrWidth = 8
	}
	need := 3 + nameLen + 1 + addrWidth
	if len(data) < need {
		return DirEntry{}, 0, recovererr.New(recovererr.InvalidRange, op, nil)
	}

	name := data[3 : 3+nameLen]
	if !isPrintable(name) {
		return DirEntry{}, 0, recovererr.New(recovererr.BadGeometry, op, nil)
	}

	ftypeByte := data[3+nameLen]
	ftype := FileTypeFromDirent(ftypeByte)
	if ftype == FileTypeInvalid {
		return DirEntry{}, 0, recovererr.New(recovererr.BadGeometry, op, nil)
	}

	r := newReader(op, data)
	var address uint64
	var err error
	if entries64 {
		address, err = r.u64(3 + nameLen + 1)
	} else {
		var v uint32
		v, err = r.u32(3 + nameLen + 1)
		address = uint64(v)
	}
	if err != nil {
		return DirEntry{}, 0, err
	}

	deleted := deletedAddressMarker(address, entries64)
	if !deleted {
		if address == 0 || address > totalDiskBytes {
			return DirEntry{}, 0, recovererr.New(recovererr.BadGeometry, op, nil)
		}
	}

	consumed := nameLen + 4 + addrWidth
	return DirEntry{
		Name:    string(name),
		Type:    ftype,
		Address: address,
		Deleted: deleted,
	}, consumed, nil
}

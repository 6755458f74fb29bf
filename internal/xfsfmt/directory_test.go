package xfsfmt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildShortFormDirectory(parentAddress uint32, entries []DirEntry) []byte {
	header := make([]byte, 6)
	header[0] = byte(len(entries))
	header[1] = 0 // 32-bit addresses
	binary.BigEndian.PutUint32(header[2:6], parentAddress)

	var body []byte
	for _, e := range entries {
		name := []byte(e.Name)
		entry := make([]byte, 3+len(name)+1+4)
		entry[0] = byte(len(name))
		copy(entry[3:3+len(name)], name)
		ftype := byte(2)
		switch e.Type {
		case FileTypeFile:
			ftype = 1
		case FileTypeDir:
			ftype = 2
		}
		entry[3+len(name)] = ftype
		binary.BigEndian.PutUint32(entry[4+len(name):], uint32(e.Address))
		body = append(body, entry...)
	}
	return append(header, body...)
}

func TestDecodeShortFormDirectoryThreeEntries(t *testing.T) {
	// S5 — deleted inode with local short-form directory, 3 entries.
	data := buildShortFormDirectory(4096, []DirEntry{
		{Name: "a", Type: FileTypeFile, Address: 200},
		{Name: "bb", Type: FileTypeDir, Address: 300},
		{Name: "ccc", Type: FileTypeFile, Address: 400},
	})

	dir, err := DecodeShortFormDirectory(data, 1<<20)
	require.NoError(t, err)
	require.Len(t, dir.Entries, 3)
	assert.Equal(t, "a", dir.Entries[0].Name)
	assert.Equal(t, FileTypeDir, dir.Entries[1].Type)
	assert.Equal(t, uint64(400), dir.Entries[2].Address)
	assert.Equal(t, uint64(4096), dir.ParentAddress)
	assert.Equal(t, len(data), dir.DirSize)
}

func TestDecodeShortFormDirectoryRejectsOversizedParent(t *testing.T) {
	// §3 packed-directory invariant: a parent address beyond the device's
	// total byte size is rejected.
	data := buildShortFormDirectory(0xffffffff, nil)
	_, err := DecodeShortFormDirectory(data, 1000)
	assert.Error(t, err)
}

func TestDecodeShortFormDirectoryPreservesDeletedEntry(t *testing.T) {
	// §8 invariant 11: a 0xFFFF-marked deleted entry address is preserved.
	data := buildShortFormDirectory(100, []DirEntry{{Name: "x", Type: FileTypeFile, Address: 0}})
	binary.BigEndian.PutUint32(data[11:15], 0xffff0000)

	dir, err := DecodeShortFormDirectory(data, 1<<20)
	require.NoError(t, err)
	require.Len(t, dir.Entries, 1)
	assert.True(t, dir.Entries[0].Deleted)
}

func TestDecodeShortFormDirectoryTooShort(t *testing.T) {
	_, err := DecodeShortFormDirectory([]byte{1, 2, 3}, 1<<20)
	assert.Error(t, err)
}

package xfsfmt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildShortFormDirEntryBytes(name string, ftype byte, address uint32) []byte {
	n := []byte(name)
	e := make([]byte, 3+len(n)+1+4)
	e[0] = byte(len(n))
	copy(e[3:3+len(n)], n)
	e[3+len(n)] = ftype
	e[4+len(n)] |= byte(address >> 24)
	e[5+len(n)] |= byte(address >> 16)
	e[6+len(n)] |= byte(address >> 8)
	e[7+len(n)] |= byte(address)
	return e
}

func TestReconstructRecognizesLocalDirectory(t *testing.T) {
	// S5 — deleted inode with local short-form directory.
	header := []byte{1, 0, 0, 0, 0, 100} // 1 entry, 32-bit, parent addr 100
	entry := buildShortFormDirEntryBytes("f", 1, 500)

	dirBytes := append(append([]byte{}, header...), entry...)
	tail := make([]byte, 32)
	copy(tail, dirBytes)

	data := buildDeletedFileCore(nil)
	data = data[:CoreSizeV1V2]
	data = append(data, tail...)

	in, err := ParseInode(data, uuid.Nil, 1<<20, 4096, nil)
	require.NoError(t, err)
	assert.Equal(t, FileTypeDir, in.FileType)
	require.NotNil(t, in.Directory)
	require.Len(t, in.Directory.Entries, 1)
	assert.Equal(t, "f", in.Directory.Entries[0].Name)
	assert.Equal(t, uint64(500), in.Directory.Entries[0].Address)
}

func TestReconstructSparseHoleNotTreatedAsGap(t *testing.T) {
	e1 := Extent{PhysicalStart: 100, Length: 4}             // logical 0..3
	e2 := Extent{LogicalOffset: 8, PhysicalStart: 300, Length: 4} // logical 8..11, hole at 4..7

	tail := EncodeExtent(e1)
	tail = append(tail, make([]byte, ExtentSize)...) // sparse hole, not end-of-data
	tail = append(tail, EncodeExtent(e2)...)
	tail = append(tail, make([]byte, ExtentSize)...) // real GAP terminator

	data := buildDeletedFileCore(nil)
	data = data[:CoreSizeV1V2]
	data = append(data, tail...)

	in, err := ParseInode(data, uuid.Nil, 1<<20, 4096, nil)
	require.NoError(t, err)
	require.Len(t, in.DataExtents, 2)
	assert.Equal(t, uint64(100), in.DataExtents[0].PhysicalStart)
	assert.Equal(t, uint64(300), in.DataExtents[1].PhysicalStart)
}

func TestReconstructAllZeroTailYieldsNothingRecovered(t *testing.T) {
	data := buildDeletedFileCore(nil)
	_, err := ParseInode(data, uuid.Nil, 1<<20, 4096, nil)
	assert.Error(t, err)
}

package xfsfmt

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLiveDirectoryCore(agUUID uuid.UUID, inodeID uint64) []byte {
	data := make([]byte, CoreSizeV3)
	data[0], data[1] = InodeMagic[0], InodeMagic[1]
	binary.BigEndian.PutUint16(data[2:4], 0x41ed) // S_IFDIR | 0755
	data[4] = 3                                   // version 3
	data[5] = byte(ForkLocal)                     // data fork kind
	binary.BigEndian.PutUint32(data[16:20], 2)     // link count
	copy(data[160:176], agUUID[:])
	binary.BigEndian.PutUint64(data[152:160], inodeID)
	return data
}

func TestParseInodeLiveDirectory(t *testing.T) {
	// S3 — live directory inode.
	agUUID := uuid.New()
	data := buildLiveDirectoryCore(agUUID, 128)

	in, err := ParseInode(data, agUUID, 1<<20, 4096, nil)
	require.NoError(t, err)
	assert.False(t, in.Deleted)
	assert.Equal(t, FileTypeDir, in.FileType)
	assert.Equal(t, uint64(128), in.InodeID)
}

func TestParseInodeUUIDMismatchRejected(t *testing.T) {
	agUUID := uuid.New()
	other := uuid.New()
	data := buildLiveDirectoryCore(other, 1)

	_, err := ParseInode(data, agUUID, 1<<20, 4096, nil)
	assert.Error(t, err)
}

func buildDeletedFileCore(extents []Extent) []byte {
	data := make([]byte, CoreSizeV1V2)
	data[0], data[1] = InodeMagic[0], InodeMagic[1]
	// type-mode (2), link count (2 for v1/v2) left zero: deleted fingerprint
	data[4] = 2               // version 2
	data[5] = byte(ForkExtents) // data-fork-kind byte forced to 2
	data[83] = byte(ForkExtents) // xattr-fork-kind byte forced to 2
	// fileSize(56), fileBlocks(64), extentCount(76), xattrOffset(82) all
	// already zero from make().

	tail := make([]byte, 0, len(extents)*ExtentSize+ExtentSize)
	for _, e := range extents {
		tail = append(tail, EncodeExtent(e)...)
	}
	tail = append(tail, make([]byte, ExtentSize)...) // GAP terminator
	return append(data, tail...)
}

func TestParseInodeDeletedFileTwoExtents(t *testing.T) {
	// S4 — deleted file inode with two extents.
	data := buildDeletedFileCore([]Extent{
		{PhysicalStart: 100, Length: 8},
		{LogicalOffset: 8, PhysicalStart: 200, Length: 4},
	})

	in, err := ParseInode(data, uuid.Nil, 1<<20, 4096, nil)
	require.NoError(t, err)
	assert.True(t, in.Deleted)
	assert.Equal(t, FileTypeFile, in.FileType)
	require.Len(t, in.DataExtents, 2)
	assert.Equal(t, uint64(12), in.FileBlocks)
	assert.LessOrEqual(t, in.FileSize, uint64(12)*4096)
}

func TestParseInodeShortBufferRejected(t *testing.T) {
	_, err := ParseInode(make([]byte, 10), uuid.Nil, 1<<20, 4096, nil)
	assert.Error(t, err)
}

func TestDeletedFingerprintRejectsNonZeroTypeMode(t *testing.T) {
	data := buildDeletedFileCore(nil)
	binary.BigEndian.PutUint16(data[2:4], 0x8000)
	assert.False(t, deletedFingerprint(data))
}

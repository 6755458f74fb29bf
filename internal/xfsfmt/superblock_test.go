package xfsfmt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSuperblock(t *testing.T, blockSize, agSize, agCount uint32, uuidByte byte) []byte {
	t.Helper()
	data := make([]byte, SuperblockSize)
	copy(data[0:4], Magic[:])
	binary.BigEndian.PutUint32(data[4:8], blockSize)
	binary.BigEndian.PutUint64(data[8:16], uint64(agSize)*uint64(agCount))
	for i := 32; i < 48; i++ {
		data[i] = uuidByte
	}
	binary.BigEndian.PutUint32(data[84:88], agSize)
	binary.BigEndian.PutUint32(data[88:92], agCount)
	binary.BigEndian.PutUint16(data[100:102], 3)  // version
	binary.BigEndian.PutUint16(data[104:106], 176) // inode size, v3
	copy(data[108:120], []byte("testlabel"))
	return data
}

func TestParseSuperblockMagicOK(t *testing.T) {
	// S1 — "XFSB" magic check.
	data := buildSuperblock(t, 4096, 0x100000, 4, 0xaa)

	sb, err := parseSuperblock(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), sb.BlockSize)
	assert.Equal(t, uint32(4), sb.AGCount)
	assert.Equal(t, uint32(0x100000), sb.AGSize)
	assert.Equal(t, "testlabel", sb.Label)
}

func TestParseSuperblockBadMagic(t *testing.T) {
	// S2 — non-XFS header.
	data := make([]byte, SuperblockSize)
	copy(data[0:4], []byte{0, 0, 0, 0})

	_, err := parseSuperblock(data)
	assert.Error(t, err)
}

func TestParseSuperblockShortBuffer(t *testing.T) {
	_, err := parseSuperblock(make([]byte, 10))
	assert.Error(t, err)
}

func TestSafeLabelTrimsAtNul(t *testing.T) {
	b := append([]byte("root"), make([]byte, 8)...)
	assert.Equal(t, "root", safeLabel(b))
}

func TestReadSuperblockSeeksToAGOffset(t *testing.T) {
	blockSize, agSize := uint32(512), uint32(16)
	ag0 := buildSuperblock(t, blockSize, agSize, 2, 0xaa)
	ag1 := buildSuperblock(t, blockSize, agSize, 2, 0xbb)

	disk := make([]byte, int64(agSize)*int64(blockSize)*2)
	copy(disk[0:], ag0)
	copy(disk[int64(agSize)*int64(blockSize):], ag1)

	r := bytes.NewReader(disk)
	sb, err := ReadSuperblock(r, 1, agSize, blockSize)
	require.NoError(t, err)
	assert.Equal(t, byte(0xbb), sb.UUID[0])
}

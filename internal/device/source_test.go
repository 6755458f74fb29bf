package device

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

func writeTempDevice(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenReadBlockRoundTrip(t *testing.T) {
	blockSize := uint32(512)
	data := make([]byte, blockSize*3)
	copy(data[blockSize:], bytes.Repeat([]byte{0xab}, int(blockSize)))

	path := writeTempDevice(t, data)
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	block, err := src.ReadBlock(1, blockSize)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xab}, int(blockSize)), block)
}

func TestReadAtBlockShortReadErrors(t *testing.T) {
	path := writeTempDevice(t, make([]byte, 16))
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.ReadAtBlock(0, 1, 100)
	assert.Error(t, err)
}

func TestOpenMissingFileErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.img"))
	assert.Error(t, err)
}

func buildFakeSuperblock(blockSize, agSize, agCount uint32) []byte {
	data := make([]byte, 272)
	copy(data[0:4], []byte{'X', 'F', 'S', 'B'})
	binary.BigEndian.PutUint32(data[4:8], blockSize)
	binary.BigEndian.PutUint64(data[8:16], uint64(agSize)*uint64(agCount))
	binary.BigEndian.PutUint32(data[84:88], agSize)
	binary.BigEndian.PutUint32(data[88:92], agCount)
	binary.BigEndian.PutUint16(data[100:102], 3)
	binary.BigEndian.PutUint16(data[104:106], 176)
	return data
}

func TestScanSuperblocksReadsOnePerAG(t *testing.T) {
	blockSize := uint32(512)
	agSize := uint32(64)
	agCount := uint32(2)

	buf := make([]byte, uint64(agSize)*uint64(agCount)*uint64(blockSize))
	copy(buf[0:], buildFakeSuperblock(blockSize, agSize, agCount))
	copy(buf[uint64(agSize)*uint64(blockSize):], buildFakeSuperblock(blockSize, agSize, agCount))

	r := bytes.NewReader(buf)
	sbs, err := ScanSuperblocks(r, agCount, agSize, blockSize)
	require.NoError(t, err)
	require.Len(t, sbs, 2)
	assert.Equal(t, blockSize, sbs[0].BlockSize)
	assert.Equal(t, blockSize, sbs[1].BlockSize)
}

func TestProbeGeometryReadsLeadingSuperblock(t *testing.T) {
	buf := buildFakeSuperblock(4096, 1000, 4)
	r := bytes.NewReader(buf)

	sb, err := ProbeGeometry(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), sb.BlockSize)
	assert.Equal(t, uint32(4), sb.AGCount)
	assert.IsType(t, &xfsfmt.Superblock{}, sb)
}

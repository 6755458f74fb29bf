package xfsfmt

import (
	"bytes"
	"io"

	"github.com/google/uuid"

	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
)

// SuperblockSize is the number of leading bytes of an allocation group this
// decoder is interested in.
const SuperblockSize = 271

// Magic is the required first four bytes of every AG superblock.
var Magic = [4]byte{'X', 'F', 'S', 'B'}

// Superblock is the decoded per-allocation-group superblock.
type Superblock struct {
	BlockSize          uint32
	TotalBlocks         uint64
	RealtimeBlocks      uint64
	RealtimeExtents     uint64
	UUID               uuid.UUID
	JournalStart       uint64
	RootInode          uint64
	RealtimeBitmapInode uint64
	RealtimeSummaryInode uint64
	RealtimeExtentSize uint32
	AGSize             uint32
	AGCount            uint32
	RealtimeBitmapBlocks uint32
	JournalBlocks      uint32
	Version            uint16
	SectorSize         uint16
	InodeSize          uint16
	InodesPerBlock     uint16
	Label              string
	MaxInodePercent    uint8
	AllocatedInodes    uint64
	FreeInodes         uint64
	FreeBlocks         uint64
	FreeRealtimeExtents uint64
	QuotaFlags         uint16
	CRC32              uint32
	IncompatUUID       uuid.UUID
}

// parseSuperblock extracts the fields Superblock carries from §3's
// 271-byte superblock map; the log2 fields, quota inodes, alignment and
// feature-flag words are not decoded.
func parseSuperblock(data []byte) (*Superblock, error) {
	const op = "xfsfmt.parseSuperblock"
	if len(data) < SuperblockSize {
		return nil, recovererr.New(recovererr.ReadShort, op, nil)
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return nil, recovererr.New(recovererr.BadMagic, op, nil)
	}

	r := newReader(op, data)
	sb := &Superblock{}

	var err error
	if sb.BlockSize, err = r.u32(4); err != nil {
		return nil, err
	}
	if sb.TotalBlocks, err = r.u64(8); err != nil {
		return nil, err
	}
	if sb.RealtimeBlocks, err = r.u64(16); err != nil {
		return nil, err
	}
	if sb.RealtimeExtents, err = r.u64(24); err != nil {
		return nil, err
	}
	uuidBytes, err := r.bytes(32, 16)
	if err != nil {
		return nil, err
	}
	sb.UUID, _ = uuid.FromBytes(uuidBytes)
	if sb.JournalStart, err = r.u64(48); err != nil {
		return nil, err
	}
	if sb.RootInode, err = r.u64(56); err != nil {
		return nil, err
	}
	if sb.RealtimeBitmapInode, err = r.u64(64); err != nil {
		return nil, err
	}
	if sb.RealtimeSummaryInode, err = r.u64(72); err != nil {
		return nil, err
	}
	if sb.RealtimeExtentSize, err = r.u32(80); err != nil {
		return nil, err
	}
	if sb.AGSize, err = r.u32(84); err != nil {
		return nil, err
	}
	if sb.AGCount, err = r.u32(88); err != nil {
		return nil, err
	}
	if sb.RealtimeBitmapBlocks, err = r.u32(92); err != nil {
		return nil, err
	}
	if sb.JournalBlocks, err = r.u32(96); err != nil {
		return nil, err
	}
	if sb.Version, err = r.u16(100); err != nil {
		return nil, err
	}
	if sb.SectorSize, err = r.u16(102); err != nil {
		return nil, err
	}
	if sb.InodeSize, err = r.u16(104); err != nil {
		return nil, err
	}
	if sb.InodesPerBlock, err = r.u16(106); err != nil {
		return nil, err
	}
	labelBytes, err := r.bytes(108, 12)
	if err != nil {
		return nil, err
	}
	sb.Label = safeLabel(labelBytes)
	if sb.MaxInodePercent, err = r.u8(127); err != nil {
		return nil, err
	}
	if sb.AllocatedInodes, err = r.u64(128); err != nil {
		return nil, err
	}
	if sb.FreeInodes, err = r.u64(136); err != nil {
		return nil, err
	}
	if sb.FreeBlocks, err = r.u64(144); err != nil {
		return nil, err
	}
	if sb.FreeRealtimeExtents, err = r.u64(152); err != nil {
		return nil, err
	}
	if sb.QuotaFlags, err = r.u16(176); err != nil {
		return nil, err
	}
	if sb.CRC32, err = r.u32(224); err != nil {
		return nil, err
	}
	incompatBytes, err := r.bytes(248, 16)
	if err != nil {
		return nil, err
	}
	sb.IncompatUUID, _ = uuid.FromBytes(incompatBytes)

	return sb, nil
}

func safeLabel(b []byte) string {
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		end = len(b)
	}
	return string(b[:end])
}

// FullDiskBlocks returns AG count × AG size, the whole device's size in
// blocks, used across the pipeline for bounds checks.
func (sb *Superblock) FullDiskBlocks() uint64 {
	return uint64(sb.AGCount) * uint64(sb.AGSize)
}

// FullAGBytes returns the byte size of one allocation group.
func (sb *Superblock) FullAGBytes() int64 {
	return int64(sb.AGSize) * int64(sb.BlockSize)
}

// ReadSuperblock seeks to the start of allocation group agNum (given its
// size in blocks and the filesystem block size) and decodes the 271-byte
// superblock found there.
func ReadSuperblock(r io.ReaderAt, agNum uint32, agSizeBlocks uint32, blockSize uint32) (*Superblock, error) {
	const op = "xfsfmt.ReadSuperblock"
	offset := int64(agNum) * int64(agSizeBlocks) * int64(blockSize)
	buf := make([]byte, SuperblockSize)
	n, err := r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, recovererr.New(recovererr.ReadShort, op, err)
	}
	if n < SuperblockSize {
		return nil, recovererr.New(recovererr.ReadShort, op, nil)
	}
	return parseSuperblock(buf)
}

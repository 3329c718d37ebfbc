package chromecache

import "fmt"

// FileType identifies where the bytes behind an Addr live.
type FileType uint8

const (
	External FileType = iota
	Rankings
	Block256
	Block1K
	Block4K
	BlockFiles
	BlockEntries
	BlockEvicted
)

const (
	addrInitializedMask = 0x80000000
	addrFileTypeMask    = 0x70000000
	addrFileTypeOffset  = 28
	addrNumBlocksMask   = 0x03000000
	addrNumBlocksOffset = 24
	addrFileSelMask     = 0x00ff0000
	addrFileSelOffset   = 16
	addrStartBlockMask  = 0x0000ffff
	addrFileNameMask    = 0x0fffffff

	maxBlocksPerAddr = 4
)

// BlockSize returns the fixed block size of a block file type, or 0 for
// external files.
func (t FileType) BlockSize() int {
	switch t {
	case Rankings:
		return 36
	case Block256:
		return 256
	case Block1K:
		return 1024
	case Block4K:
		return 4096
	case BlockFiles:
		return 8
	case BlockEntries:
		return 104
	case BlockEvicted:
		return 48
	default:
		return 0
	}
}

// Addr is a packed cache address as stored in the index and entry records.
type Addr uint32

// NewBlockAddr packs a block file address. blocks is the number of
// contiguous blocks (1-4) starting at start in data_<file>.
func NewBlockAddr(t FileType, file, start, blocks int) Addr {
	return Addr(addrInitializedMask |
		uint32(t)<<addrFileTypeOffset |
		uint32(blocks-1)<<addrNumBlocksOffset&addrNumBlocksMask |
		uint32(file)<<addrFileSelOffset&addrFileSelMask |
		uint32(start)&addrStartBlockMask)
}

// NewExternalAddr packs the address of a standalone f_xxxxxx file.
func NewExternalAddr(file int) Addr {
	return Addr(addrInitializedMask | uint32(file)&addrFileNameMask)
}

func (a Addr) Initialized() bool { return a&addrInitializedMask != 0 }

func (a Addr) FileType() FileType {
	return FileType((a & addrFileTypeMask) >> addrFileTypeOffset)
}

func (a Addr) IsExternal() bool { return a.FileType() == External }

// FileNumber is the f_ file number for external addresses and the data_
// file selector otherwise.
func (a Addr) FileNumber() int {
	if a.IsExternal() {
		return int(a & addrFileNameMask)
	}
	return int((a & addrFileSelMask) >> addrFileSelOffset)
}

func (a Addr) StartBlock() int { return int(a & addrStartBlockMask) }

func (a Addr) NumBlocks() int { return int((a&addrNumBlocksMask)>>addrNumBlocksOffset) + 1 }

// FileName is the name of the file holding this address inside the cache root.
func (a Addr) FileName() string {
	if a.IsExternal() {
		return fmt.Sprintf("f_%06x", a.FileNumber())
	}
	return fmt.Sprintf("data_%d", a.FileNumber())
}

func (a Addr) String() string {
	if !a.Initialized() {
		return "addr(uninitialized)"
	}
	if a.IsExternal() {
		return fmt.Sprintf("addr(%s)", a.FileName())
	}
	return fmt.Sprintf("addr(%s block=%d n=%d)", a.FileName(), a.StartBlock(), a.NumBlocks())
}

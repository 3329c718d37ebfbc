package chromecache

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// On-disk constants of the blockfile backend.
const (
	IndexMagic      uint32 = 0xC103CAC3
	BlockMagic      uint32 = 0xC104CAC3
	IndexHeaderSize        = 368
	BlockHeaderSize        = 8192
	EntrySize              = 256
	DefaultTableLen        = 0x10000

	indexFileName = "index"

	entryKeyOffset = 96
	bodyStream     = 1
	headerStream   = 0
)

// Entry states recorded in the entry record.
const (
	stateNormal  = 0
	stateEvicted = 1
	stateDoomed  = 2
)

// ErrFormat marks data that does not look like a blockfile cache.
var ErrFormat = errors.New("chromecache: invalid cache format")

var le = binary.LittleEndian

type indexHeader struct {
	version    uint32
	numEntries int32
	tableLen   int
}

func parseIndexHeader(data []byte) (indexHeader, error) {
	if len(data) < IndexHeaderSize {
		return indexHeader{}, fmt.Errorf("%w: index is %d bytes, shorter than its header", ErrFormat, len(data))
	}
	if magic := le.Uint32(data[0:]); magic != IndexMagic {
		return indexHeader{}, fmt.Errorf("%w: index magic %#x", ErrFormat, magic)
	}
	hdr := indexHeader{
		version:    le.Uint32(data[4:]),
		numEntries: int32(le.Uint32(data[8:])),
		tableLen:   int(int32(le.Uint32(data[28:]))),
	}
	if major := hdr.version >> 16; major != 2 && major != 3 {
		return indexHeader{}, fmt.Errorf("%w: unsupported index version %#x", ErrFormat, hdr.version)
	}
	if hdr.tableLen == 0 {
		hdr.tableLen = DefaultTableLen
	}
	if hdr.tableLen < 0 {
		return indexHeader{}, fmt.Errorf("%w: negative table length %d", ErrFormat, hdr.tableLen)
	}
	if need := IndexHeaderSize + hdr.tableLen*4; len(data) < need {
		return indexHeader{}, fmt.Errorf("%w: index is %d bytes, table needs %d", ErrFormat, len(data), need)
	}
	return hdr, nil
}

// entryRecord is the decoded fixed part of an EntryStore.
type entryRecord struct {
	next     Addr
	state    int32
	keyLen   int
	longKey  Addr
	dataSize [4]int32
	dataAddr [4]Addr
}

func parseEntryRecord(raw []byte) (entryRecord, error) {
	if len(raw) < EntrySize {
		return entryRecord{}, fmt.Errorf("%w: entry record is %d bytes", ErrFormat, len(raw))
	}
	rec := entryRecord{
		next:    Addr(le.Uint32(raw[4:])),
		state:   int32(le.Uint32(raw[20:])),
		keyLen:  int(int32(le.Uint32(raw[32:]))),
		longKey: Addr(le.Uint32(raw[36:])),
	}
	for i := 0; i < 4; i++ {
		rec.dataSize[i] = int32(le.Uint32(raw[40+4*i:]))
		rec.dataAddr[i] = Addr(le.Uint32(raw[56+4*i:]))
	}
	if rec.keyLen < 0 {
		return entryRecord{}, fmt.Errorf("%w: negative key length %d", ErrFormat, rec.keyLen)
	}
	return rec, nil
}

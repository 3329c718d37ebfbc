package testsupport

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"testing"

	"cache2mp4/internal/chromecache"
)

// CacheEntry describes one entry written by WriteBlockfileCache.
type CacheEntry struct {
	Key  string
	Body []byte
	// Headers is stored in stream 0, e.g. "content-encoding: gzip".
	Headers string
	// LongKey forces the key out of the entry record into its own block.
	LongKey bool
	// Doomed marks the entry as being deleted by the browser.
	Doomed bool
}

// TableLen is the hash table size used by WriteBlockfileCache.
const TableLen = 64

const (
	indexVersion  = 0x30000
	inlineKeyRoom = 4*chromecache.EntrySize - 96 - 1
)

var le = binary.LittleEndian

type blockFile struct {
	fileType chromecache.FileType
	number   int
	next     int
	data     []byte
}

func (b *blockFile) alloc(payload []byte, blocks int) chromecache.Addr {
	size := b.fileType.BlockSize()
	start := b.next
	b.next += blocks
	offset := start * size
	if need := offset + blocks*size; need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	copy(b.data[offset:], payload)
	return chromecache.NewBlockAddr(b.fileType, b.number, start, blocks)
}

func (b *blockFile) bytes() []byte {
	hdr := make([]byte, chromecache.BlockHeaderSize)
	le.PutUint32(hdr[0:], chromecache.BlockMagic)
	le.PutUint32(hdr[4:], 0x20000)
	le.PutUint16(hdr[8:], uint16(b.number))
	le.PutUint32(hdr[12:], uint32(b.fileType.BlockSize()))
	le.PutUint32(hdr[16:], uint32(b.next))
	return append(hdr, b.data...)
}

type cacheWriter struct {
	t        testing.TB
	dir      string
	entries  *blockFile
	small    *blockFile
	large    *blockFile
	external int
}

func (w *cacheWriter) store(data []byte) chromecache.Addr {
	switch n := len(data); {
	case n == 0:
		return 0
	case n <= 4*1024:
		return w.small.alloc(data, ceilDiv(n, 1024))
	case n <= 4*4096:
		return w.large.alloc(data, ceilDiv(n, 4096))
	default:
		w.external++
		addr := chromecache.NewExternalAddr(w.external)
		if err := os.WriteFile(filepath.Join(w.dir, addr.FileName()), data, 0o644); err != nil {
			w.t.Fatalf("write external file: %v", err)
		}
		return addr
	}
}

// WriteBlockfileCache writes a blockfile cache holding entries into dir,
// replacing any previous cache files there. Entries that hash to the same
// bucket are chained.
func WriteBlockfileCache(t testing.TB, dir string, entries []CacheEntry) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir cache dir: %v", err)
	}
	w := &cacheWriter{
		t:       t,
		dir:     dir,
		entries: &blockFile{fileType: chromecache.Block256, number: 1},
		small:   &blockFile{fileType: chromecache.Block1K, number: 2},
		large:   &blockFile{fileType: chromecache.Block4K, number: 3},
	}

	table := make([]chromecache.Addr, TableLen)
	for _, entry := range entries {
		record := make([]byte, 4*chromecache.EntrySize)
		bucket := BucketOf(entry.Key)

		le.PutUint32(record[4:], uint32(table[bucket]))
		if entry.Doomed {
			le.PutUint32(record[20:], 2)
		}
		le.PutUint32(record[32:], uint32(len(entry.Key)))

		blocks := 1
		if entry.LongKey || len(entry.Key) > inlineKeyRoom {
			keyAddr := w.store([]byte(entry.Key))
			le.PutUint32(record[36:], uint32(keyAddr))
		} else {
			copy(record[96:], entry.Key)
			blocks = ceilDiv(96+len(entry.Key)+1, chromecache.EntrySize)
		}

		if entry.Headers != "" {
			headers := []byte("HTTP/1.1 200 OK\x00" + entry.Headers + "\x00\x00")
			le.PutUint32(record[40:], uint32(len(headers)))
			le.PutUint32(record[56:], uint32(w.store(headers)))
		}
		le.PutUint32(record[44:], uint32(len(entry.Body)))
		le.PutUint32(record[60:], uint32(w.store(entry.Body)))

		table[bucket] = w.entries.alloc(record[:blocks*chromecache.EntrySize], blocks)
	}

	index := make([]byte, chromecache.IndexHeaderSize+TableLen*4)
	le.PutUint32(index[0:], chromecache.IndexMagic)
	le.PutUint32(index[4:], indexVersion)
	le.PutUint32(index[8:], uint32(len(entries)))
	le.PutUint32(index[28:], TableLen)
	for i, addr := range table {
		le.PutUint32(index[chromecache.IndexHeaderSize+i*4:], uint32(addr))
	}

	files := map[string][]byte{
		"index":  index,
		"data_1": w.entries.bytes(),
		"data_2": w.small.bytes(),
		"data_3": w.large.bytes(),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// BucketOf returns the hash table bucket WriteBlockfileCache uses for key.
func BucketOf(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % TableLen)
}

// SegmentKey builds a partitioned cache key for a media URL the way the
// browser records it.
func SegmentKey(site, url string) string {
	return fmt.Sprintf("1/0/_dk_%s %s %s", site, site, url)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

package chromecache

import (
	"fmt"
	"io"
	"path/filepath"

	"cache2mp4/internal/fileutil"
)

// Snapshot is one read of the cache. Entries are owned by the snapshot and
// their bodies stay readable until Close.
type Snapshot struct {
	files   *blockFiles
	entries []Entry
	skipped int
	decode  bool
}

// Entries returns the entries in hash table order.
func (s *Snapshot) Entries() []Entry { return s.entries }

// Skipped counts entry records that could not be decoded, typically because
// the browser was writing them while the snapshot was taken.
func (s *Snapshot) Skipped() int { return s.skipped }

// Body returns the raw stored body of e without content decoding.
func (s *Snapshot) Body(e Entry) ([]byte, error) {
	if e.Empty() {
		return nil, nil
	}
	return s.files.read(e.bodyAddr, e.BodySize)
}

// CopyData writes the body of e into dir under the key's filename and returns
// the number of bytes written. The file is replaced atomically.
func (s *Snapshot) CopyData(e Entry, dir string) (int64, error) {
	name := e.Key.Filename()
	if name == "" || name == "." || name == ".." {
		return 0, fmt.Errorf("key %q has no usable filename", e.Key.Value)
	}
	if e.Empty() {
		return 0, fmt.Errorf("entry %q has no body", name)
	}

	body, err := s.files.section(e.bodyAddr, e.BodySize)
	if err != nil {
		return 0, fmt.Errorf("locate body of %q: %w", name, err)
	}

	var encoding string
	if s.decode && e.headerSize > 0 && e.headerAddr.Initialized() {
		if headers, err := s.files.read(e.headerAddr, e.headerSize); err == nil {
			encoding = contentEncoding(headers)
		}
	}
	reader, err := decodeBody(body, encoding)
	if err != nil {
		return 0, fmt.Errorf("decode %s body of %q: %w", encoding, name, err)
	}
	defer reader.Close()

	written, err := fileutil.WriteAtomic(filepath.Join(dir, name), reader, 0o644)
	if err != nil {
		return written, fmt.Errorf("write %q: %w", name, err)
	}
	return written, nil
}

// Close releases the cache files opened by the snapshot.
func (s *Snapshot) Close() error {
	if s == nil || s.files == nil {
		return nil
	}
	return s.files.Close()
}

// maxChainLength bounds a single bucket walk against corrupted next links.
const maxChainLength = 1 << 16

func (s *Snapshot) load(index []byte, hdr indexHeader) {
	for bucket := 0; bucket < hdr.tableLen; bucket++ {
		addr := Addr(le.Uint32(index[IndexHeaderSize+bucket*4:]))
		visited := make(map[Addr]struct{})
		for addr != 0 {
			if _, seen := visited[addr]; seen {
				s.skipped++
				break
			}
			visited[addr] = struct{}{}

			if len(visited) > maxChainLength {
				s.skipped++
				break
			}

			rec, entry, err := s.readEntry(addr)
			if err != nil {
				s.skipped++
				break
			}
			if rec.state == stateNormal {
				s.entries = append(s.entries, entry)
			}
			addr = rec.next
		}
	}
}

func (s *Snapshot) readEntry(addr Addr) (entryRecord, Entry, error) {
	if !addr.Initialized() || addr.FileType() != Block256 {
		return entryRecord{}, Entry{}, fmt.Errorf("%w: entry at %s", ErrFormat, addr)
	}
	raw, err := s.files.read(addr, addr.NumBlocks()*EntrySize)
	if err != nil {
		return entryRecord{}, Entry{}, err
	}
	rec, err := parseEntryRecord(raw)
	if err != nil {
		return entryRecord{}, Entry{}, err
	}

	var key Key
	if rec.longKey == 0 {
		if entryKeyOffset+rec.keyLen > len(raw) {
			return entryRecord{}, Entry{}, fmt.Errorf("%w: inline key of %d bytes overflows entry", ErrFormat, rec.keyLen)
		}
		key = Key{Kind: KeyLocal, Value: string(raw[entryKeyOffset : entryKeyOffset+rec.keyLen])}
	} else {
		value, err := s.files.read(rec.longKey, rec.keyLen)
		if err != nil {
			return entryRecord{}, Entry{}, fmt.Errorf("read long key: %w", err)
		}
		key = Key{Kind: KeyLong, Value: string(value)}
	}

	entry := Entry{
		Key:        key,
		headerAddr: rec.dataAddr[headerStream],
		headerSize: int(rec.dataSize[headerStream]),
	}
	if size := int(rec.dataSize[bodyStream]); size > 0 && rec.dataAddr[bodyStream].Initialized() {
		entry.BodySize = size
		entry.bodyAddr = rec.dataAddr[bodyStream]
	}
	return rec, entry, nil
}

var _ io.Closer = (*Snapshot)(nil)

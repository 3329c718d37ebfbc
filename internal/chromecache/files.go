package chromecache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// blockFiles lazily opens the data_N and f_xxxxxx files of one cache root
// and resolves addresses into byte ranges.
type blockFiles struct {
	root  string
	open  map[string]*os.File
	sizes map[string]int64
}

func newBlockFiles(root string) *blockFiles {
	return &blockFiles{
		root:  root,
		open:  make(map[string]*os.File),
		sizes: make(map[string]int64),
	}
}

func (b *blockFiles) file(addr Addr) (*os.File, int64, error) {
	name := addr.FileName()
	if f, ok := b.open[name]; ok {
		return f, b.sizes[name], nil
	}
	f, err := os.Open(filepath.Join(b.root, name))
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if !addr.IsExternal() {
		if err := checkBlockHeader(f, info.Size(), addr.FileType()); err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("%s: %w", name, err)
		}
	}
	b.open[name] = f
	b.sizes[name] = info.Size()
	return f, info.Size(), nil
}

func checkBlockHeader(f *os.File, size int64, t FileType) error {
	if size < BlockHeaderSize {
		return fmt.Errorf("%w: block file is %d bytes, shorter than its header", ErrFormat, size)
	}
	var hdr [16]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		return err
	}
	if magic := le.Uint32(hdr[0:]); magic != BlockMagic {
		return fmt.Errorf("%w: block file magic %#x", ErrFormat, magic)
	}
	if entrySize := int(int32(le.Uint32(hdr[12:]))); entrySize != t.BlockSize() {
		return fmt.Errorf("%w: block size %d, address expects %d", ErrFormat, entrySize, t.BlockSize())
	}
	return nil
}

// section returns a reader over n bytes stored at addr.
func (b *blockFiles) section(addr Addr, n int) (*io.SectionReader, error) {
	if !addr.Initialized() {
		return nil, fmt.Errorf("%w: read from uninitialized address", ErrFormat)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at %s", ErrFormat, n, addr)
	}
	f, size, err := b.file(addr)
	if err != nil {
		return nil, err
	}

	var offset int64
	if !addr.IsExternal() {
		blockSize := addr.FileType().BlockSize()
		if blockSize == 0 {
			return nil, fmt.Errorf("%w: unknown block type at %s", ErrFormat, addr)
		}
		if capacity := addr.NumBlocks() * blockSize; n > capacity {
			return nil, fmt.Errorf("%w: %d bytes do not fit in %s", ErrFormat, n, addr)
		}
		offset = BlockHeaderSize + int64(addr.StartBlock())*int64(blockSize)
	}
	if offset+int64(n) > size {
		return nil, fmt.Errorf("%w: %s extends past end of file", ErrFormat, addr)
	}
	return io.NewSectionReader(f, offset, int64(n)), nil
}

func (b *blockFiles) read(addr Addr, n int) ([]byte, error) {
	r, err := b.section(addr, n)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *blockFiles) Close() error {
	var errs []error
	for name, f := range b.open {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(b.open, name)
	}
	return errors.Join(errs...)
}

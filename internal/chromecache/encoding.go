package chromecache

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var contentEncodingHeader = []byte("content-encoding:")

// contentEncoding extracts the Content-Encoding value from the serialized
// response info in stream 0. Headers are stored as NUL-separated lines.
func contentEncoding(headers []byte) string {
	lower := bytes.ToLower(headers)
	idx := bytes.Index(lower, contentEncodingHeader)
	if idx < 0 {
		return ""
	}
	value := lower[idx+len(contentEncodingHeader):]
	if end := bytes.IndexAny(value, "\x00\r\n"); end >= 0 {
		value = value[:end]
	}
	// Multiple codings apply in order; only a single coding is undone.
	encoding := strings.TrimSpace(string(value))
	if strings.Contains(encoding, ",") {
		return "unsupported"
	}
	return encoding
}

// decodeBody wraps r with a decompressor for encoding. Unknown encodings,
// including br, are passed through untouched.
func decodeBody(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch encoding {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		br := bufio.NewReader(r)
		if head, err := br.Peek(2); err == nil && isZlibHeader(head) {
			return zlib.NewReader(br)
		}
		return flate.NewReader(br), nil
	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}

func isZlibHeader(head []byte) bool {
	return head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0
}

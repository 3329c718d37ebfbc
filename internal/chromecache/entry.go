package chromecache

import (
	"fmt"
	"strings"
)

// KeyKind tags where an entry's key was stored.
type KeyKind uint8

const (
	// KeyLocal keys are stored inline in the entry record.
	KeyLocal KeyKind = iota
	// KeyLong keys did not fit in the record and live at a separate address.
	KeyLong
)

func (k KeyKind) String() string {
	switch k {
	case KeyLocal:
		return "local"
	case KeyLong:
		return "long"
	default:
		return fmt.Sprintf("KeyKind(%d)", uint8(k))
	}
}

// Key is a cache entry key, usually a URL optionally prefixed with
// partitioning data ("1/0/_dk_https://site https://site https://cdn/x.ts").
type Key struct {
	Kind  KeyKind
	Value string
}

// LocalKey builds a KeyLocal key.
func LocalKey(value string) Key { return Key{Kind: KeyLocal, Value: value} }

// Filename returns the final "/"-separated component of the key.
func (k Key) Filename() string {
	if i := strings.LastIndexByte(k.Value, '/'); i >= 0 {
		return k.Value[i+1:]
	}
	return k.Value
}

func (k Key) String() string { return k.Value }

// Entry is one cache entry observed in a snapshot. The body is not read
// until CopyData or Body is called on the owning snapshot.
type Entry struct {
	Key Key
	// BodySize is the length of the stored response body in bytes.
	BodySize int

	headerAddr Addr
	headerSize int
	bodyAddr   Addr
}

// Empty reports whether the entry has no body payload.
func (e Entry) Empty() bool { return e.BodySize <= 0 }

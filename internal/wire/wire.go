package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version    byte = 1
	kindSingle byte = 1
	kindGroup  byte = 2

	maxVersionLen = 0xFF
	maxKeyLen     = 0xFFFF
)

var (
	ErrCorrupt = errors.New("scorecache: corrupt entry")
	magic4     = [...]byte{'S', 'C', 'C', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is one framed cache value.
type Entry struct {
	Provenance byte
	At         int64 // unix nanos
	Payload    []byte
}

// Single: magic(4) | ver(1) | kind(1=single) | slen(u8) | schema(slen) |
// prov(1) | at(i64 be) | vlen(u32 be) | payload(vlen)
func EncodeSingle(schema string, e Entry) ([]byte, error) {
	if len(schema) == 0 || len(schema) > maxVersionLen {
		return nil, fmt.Errorf("scorecache: invalid schema version length %d", len(schema))
	}
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + len(schema) + 1 + 8 + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindSingle)
	buf.WriteByte(byte(len(schema)))
	buf.WriteString(schema)
	writeEntry(&buf, e)
	return buf.Bytes(), nil
}

// DecodeSingle parses a single frame. Trailing bytes are rejected.
func DecodeSingle(b []byte) (schema string, e Entry, err error) {
	schema, off, err := header(b, kindSingle)
	if err != nil {
		return "", Entry{}, err
	}
	e, off, err = readEntry(b, off)
	if err != nil {
		return "", Entry{}, err
	}
	if off != len(b) {
		return "", Entry{}, ErrCorrupt
	}
	return schema, e, nil
}

// GroupItem is one member of a group snapshot.
type GroupItem struct {
	ID string
	Entry
}

// Group:
//
//	magic(4) | ver(1) | kind(1=group) | slen(u8) | schema(slen) | n(u32 be)
//	idLen(u16 be) | id(idLen) | prov(1) | at(i64 be) | vlen(u32 be) | payload(vlen) * n
func EncodeGroup(schema string, items []GroupItem) ([]byte, error) {
	if len(schema) == 0 || len(schema) > maxVersionLen {
		return nil, fmt.Errorf("scorecache: invalid schema version length %d", len(schema))
	}
	total := 4 + 1 + 1 + 1 + len(schema) + 4
	for _, it := range items {
		if l := len(it.ID); l == 0 || l > maxKeyLen {
			return nil, fmt.Errorf("scorecache: invalid item id length %d", l)
		}
		total += 2 + len(it.ID) + 1 + 8 + 4 + len(it.Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindGroup)
	buf.WriteByte(byte(len(schema)))
	buf.WriteString(schema)

	var u4 [4]byte
	var u2 [2]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		binary.BigEndian.PutUint16(u2[:], uint16(len(it.ID)))
		buf.Write(u2[:])
		buf.WriteString(it.ID)
		writeEntry(&buf, it.Entry)
	}
	return buf.Bytes(), nil
}

// DecodeGroup parses a group frame. Trailing bytes are rejected.
func DecodeGroup(b []byte) (string, []GroupItem, error) {
	schema, off, err := header(b, kindGroup)
	if err != nil {
		return "", nil, err
	}
	if off+4 > len(b) {
		return "", nil, ErrCorrupt
	}
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4

	// each item needs at least 2+1+1+8+4 bytes; refuse bogus counts before allocating
	if n < 0 || n > (len(b)-off)/16 {
		return "", nil, ErrCorrupt
	}

	items := make([]GroupItem, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return "", nil, ErrCorrupt
		}
		klen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if klen <= 0 || klen > len(b)-off {
			return "", nil, ErrCorrupt
		}
		id := string(b[off : off+klen])
		off += klen

		var e Entry
		e, off, err = readEntry(b, off)
		if err != nil {
			return "", nil, err
		}
		items = append(items, GroupItem{ID: id, Entry: e})
	}
	if off != len(b) {
		return "", nil, ErrCorrupt
	}
	return schema, items, nil
}

func header(b []byte, kind byte) (string, int, error) {
	const fixed = 4 + 1 + 1 + 1
	if len(b) < fixed || !hasMagic(b) || b[4] != version || b[5] != kind {
		return "", 0, ErrCorrupt
	}
	slen := int(b[6])
	off := fixed
	if slen == 0 || slen > len(b)-off {
		return "", 0, ErrCorrupt
	}
	return string(b[off : off+slen]), off + slen, nil
}

func writeEntry(buf *bytes.Buffer, e Entry) {
	var u8 [8]byte
	var u4 [4]byte

	buf.WriteByte(e.Provenance)
	binary.BigEndian.PutUint64(u8[:], uint64(e.At))
	buf.Write(u8[:])
	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)
}

func readEntry(b []byte, off int) (Entry, int, error) {
	if off+1+8+4 > len(b) {
		return Entry{}, 0, ErrCorrupt
	}
	prov := b[off]
	off++
	at := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off { // overflow-safe bound check
		return Entry{}, 0, ErrCorrupt
	}
	return Entry{Provenance: prov, At: at, Payload: b[off : off+vlen]}, off + vlen, nil
}

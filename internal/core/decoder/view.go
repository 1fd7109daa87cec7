package decoder

import "encoding/binary"

// view is a bounds-checked window over frame bytes. Accessors report whether
// the requested range exists instead of assuming a header overlay fits.
type view []byte

func (v view) has(off, n int) bool {
	return off >= 0 && n >= 0 && off <= len(v) && n <= len(v)-off
}

func (v view) u8(off int) (uint8, bool) {
	if !v.has(off, 1) {
		return 0, false
	}
	return v[off], true
}

func (v view) be16(off int) (uint16, bool) {
	if !v.has(off, 2) {
		return 0, false
	}
	return binary.BigEndian.Uint16(v[off : off+2]), true
}

func (v view) le16(off int) (uint16, bool) {
	if !v.has(off, 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(v[off : off+2]), true
}

// sub returns the n bytes starting at off.
func (v view) sub(off, n int) (view, bool) {
	if !v.has(off, n) {
		return nil, false
	}
	return v[off : off+n], true
}

// from returns everything from off to the end.
func (v view) from(off int) (view, bool) {
	if !v.has(off, 0) {
		return nil, false
	}
	return v[off:], true
}

func (v view) mac(off int) ([6]byte, bool) {
	var m [6]byte
	b, ok := v.sub(off, 6)
	if !ok {
		return m, false
	}
	copy(m[:], b)
	return m, true
}

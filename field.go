package xtiff

import (
	"bytes"
	"io"
)

// TIFF field types.
const (
	tByte     = 1
	tAscii    = 2
	tShort    = 3
	tLong     = 4
	tRational = 5
	tLong8    = 16
)

// rational is a TIFF RATIONAL field value.
type rational struct {
	num, den uint32
}

// newRational approximates a non-negative float as a RATIONAL. Integral
// values map exactly; others keep four decimal places.
func newRational(f float64) *rational {
	if f == float64(uint32(f)) {
		return &rational{num: uint32(f), den: 1}
	}
	return &rational{num: uint32(f*10000 + 0.5), den: 10000}
}

// tagData accumulates field values that do not fit inline in their IFD entry,
// together with the file offset the accumulated bytes will be written at.
type tagData struct {
	bytes.Buffer
	Offset uint64
}

func (t *tagData) NextOffset() uint64 {
	return t.Offset + uint64(t.Buffer.Len())
}

// arrayFieldSize returns the number of bytes the field contributes to the
// file: the IFD entry itself plus any out-of-line value bytes.
func arrayFieldSize(data interface{}, bigtiff bool) uint64 {
	tagSize := uint64(12)
	inline := 4
	if bigtiff {
		tagSize = 20
		inline = 8
	}
	switch d := data.(type) {
	case []uint16:
		if 2*len(d) <= inline {
			return tagSize
		}
		return tagSize + uint64(2*len(d))
	case []uint32:
		if 4*len(d) <= inline {
			return tagSize
		}
		return tagSize + uint64(4*len(d))
	case []uint64:
		if 8*len(d) <= inline {
			return tagSize
		}
		return tagSize + uint64(8*len(d))
	case string:
		if len(d)+1 <= inline {
			return tagSize
		}
		return tagSize + uint64(len(d)+1)
	case *rational:
		if bigtiff {
			return tagSize
		}
		return tagSize + 8
	default:
		panic("bug")
	}
}

func (e *tiffEncoder) writeField(w io.Writer, tag uint16, data interface{}) error {
	if e.bigtiff {
		var buf [20]byte
		e.enc.PutUint16(buf[0:2], tag)
		switch d := data.(type) {
		case uint16:
			e.enc.PutUint16(buf[2:4], tShort)
			e.enc.PutUint64(buf[4:12], 1)
			e.enc.PutUint16(buf[12:], d)
		case uint32:
			e.enc.PutUint16(buf[2:4], tLong)
			e.enc.PutUint64(buf[4:12], 1)
			e.enc.PutUint32(buf[12:], d)
		case uint64:
			e.enc.PutUint16(buf[2:4], tLong8)
			e.enc.PutUint64(buf[4:12], 1)
			e.enc.PutUint64(buf[12:], d)
		default:
			panic("unsupported type")
		}
		_, err := w.Write(buf[0:20])
		return err
	}
	var buf [12]byte
	e.enc.PutUint16(buf[0:2], tag)
	switch d := data.(type) {
	case uint16:
		e.enc.PutUint16(buf[2:4], tShort)
		e.enc.PutUint32(buf[4:8], 1)
		e.enc.PutUint16(buf[8:], d)
	case uint32:
		e.enc.PutUint16(buf[2:4], tLong)
		e.enc.PutUint32(buf[4:8], 1)
		e.enc.PutUint32(buf[8:], d)
	default:
		panic("unsupported type")
	}
	_, err := w.Write(buf[0:12])
	return err
}

func (e *tiffEncoder) writeArray(w io.Writer, tag uint16, data interface{}, tags *tagData) error {
	var buf []byte
	valueOff := 8
	if e.bigtiff {
		buf = make([]byte, 20)
		valueOff = 12
	} else {
		buf = make([]byte, 12)
	}
	e.enc.PutUint16(buf[0:2], tag)

	putCount := func(n int) {
		if e.bigtiff {
			e.enc.PutUint64(buf[4:12], uint64(n))
		} else {
			e.enc.PutUint32(buf[4:8], uint32(n))
		}
	}
	putOffset := func() {
		if e.bigtiff {
			e.enc.PutUint64(buf[valueOff:], tags.NextOffset())
		} else {
			e.enc.PutUint32(buf[valueOff:], uint32(tags.NextOffset()))
		}
	}

	switch d := data.(type) {
	case []uint16:
		e.enc.PutUint16(buf[2:4], tShort)
		putCount(len(d))
		if 2*len(d) <= len(buf)-valueOff {
			for i := range d {
				e.enc.PutUint16(buf[valueOff+2*i:], d[i])
			}
		} else {
			putOffset()
			for i := range d {
				var v [2]byte
				e.enc.PutUint16(v[:], d[i])
				tags.Write(v[:])
			}
		}
	case []uint32:
		e.enc.PutUint16(buf[2:4], tLong)
		putCount(len(d))
		if 4*len(d) <= len(buf)-valueOff {
			for i := range d {
				e.enc.PutUint32(buf[valueOff+4*i:], d[i])
			}
		} else {
			putOffset()
			for i := range d {
				var v [4]byte
				e.enc.PutUint32(v[:], d[i])
				tags.Write(v[:])
			}
		}
	case []uint64:
		e.enc.PutUint16(buf[2:4], tLong8)
		putCount(len(d))
		if 8*len(d) <= len(buf)-valueOff {
			for i := range d {
				e.enc.PutUint64(buf[valueOff+8*i:], d[i])
			}
		} else {
			putOffset()
			for i := range d {
				var v [8]byte
				e.enc.PutUint64(v[:], d[i])
				tags.Write(v[:])
			}
		}
	case string:
		e.enc.PutUint16(buf[2:4], tAscii)
		putCount(len(d) + 1)
		if len(d)+1 <= len(buf)-valueOff {
			copy(buf[valueOff:], d)
			buf[valueOff+len(d)] = 0
		} else {
			putOffset()
			tags.Write(append([]byte(d), 0))
		}
	case *rational:
		e.enc.PutUint16(buf[2:4], tRational)
		putCount(1)
		if e.bigtiff {
			e.enc.PutUint32(buf[valueOff:], d.num)
			e.enc.PutUint32(buf[valueOff+4:], d.den)
		} else {
			putOffset()
			var v [8]byte
			e.enc.PutUint32(v[0:4], d.num)
			e.enc.PutUint32(v[4:8], d.den)
			tags.Write(v[:])
		}
	default:
		panic("unsupported type")
	}
	_, err := w.Write(buf)
	return err
}

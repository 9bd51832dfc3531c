package xtiff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriteHeader(t *testing.T) {
	cases := []struct {
		enc     binary.ByteOrder
		bigtiff bool
		want    []byte
	}{
		{binary.LittleEndian, false, []byte{'I', 'I', 42, 0, 8, 0, 0, 0}},
		{binary.BigEndian, false, []byte{'M', 'M', 0, 42, 0, 0, 0, 8}},
		{binary.LittleEndian, true, []byte{'I', 'I', 43, 0, 8, 0, 0, 0, 16, 0, 0, 0, 0, 0, 0, 0}},
		{binary.BigEndian, true, []byte{'M', 'M', 0, 43, 0, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 16}},
	}
	for _, c := range cases {
		buf := bytes.Buffer{}
		e := &tiffEncoder{enc: c.enc, bigtiff: c.bigtiff}
		if err := e.writeHeader(&buf); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("header: got %v, want %v", buf.Bytes(), c.want)
		}
	}
}

func TestStripRows(t *testing.T) {
	// A row larger than the strip target still yields one row per strip.
	if got := stripRows(100, 2*defaultStripTargetBytes); got != 1 {
		t.Errorf("oversized rows: %d", got)
	}
	// Small planes collapse into a single strip.
	if got := stripRows(4, 10); got != 4 {
		t.Errorf("small plane: %d", got)
	}
	if got := stripRows(10000, 1024); got != defaultStripTargetBytes/1024 {
		t.Errorf("target split: %d", got)
	}
}

func TestNewRational(t *testing.T) {
	if r := newRational(300); r.num != 300 || r.den != 1 {
		t.Errorf("integral: %d/%d", r.num, r.den)
	}
	// 1e4/0.65 keeps four decimal places.
	if r := newRational(1e4 / 0.65); r.num != 153846154 || r.den != 10000 {
		t.Errorf("fractional: %d/%d", r.num, r.den)
	}
}

func TestSerializePixels(t *testing.T) {
	got := serializePixels([]uint16{0x1234, 0x5678}, binary.LittleEndian)
	if !bytes.Equal(got, []byte{0x34, 0x12, 0x78, 0x56}) {
		t.Errorf("uint16 le: %v", got)
	}
	got = serializePixels([]uint16{0x1234, 0x5678}, binary.BigEndian)
	if !bytes.Equal(got, []byte{0x12, 0x34, 0x56, 0x78}) {
		t.Errorf("uint16 be: %v", got)
	}
	got = serializePixels([]bool{true, false, true}, binary.LittleEndian)
	if !bytes.Equal(got, []byte{1, 0, 1}) {
		t.Errorf("bool: %v", got)
	}
	got = serializePixels([]int16{-1}, binary.BigEndian)
	if !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("int16: %v", got)
	}
	got = serializePixels([]float32{1.0}, binary.LittleEndian)
	if !bytes.Equal(got, []byte{0, 0, 0x80, 0x3F}) {
		t.Errorf("float32: %v", got)
	}
	data := []uint8{1, 2, 3}
	if got := serializePixels(data, binary.BigEndian); &got[0] != &data[0] {
		t.Error("uint8 buffers must not be copied")
	}
}

func TestArrayFieldSizeMatchesWrites(t *testing.T) {
	values := []interface{}{
		[]uint16{1},
		[]uint16{1, 2, 3},
		[]uint32{7},
		[]uint32{7, 8},
		[]uint64{9},
		[]uint64{9, 10},
		"ab",
		"a longer ascii value",
		newRational(0.65),
	}
	for _, bigtiff := range []bool{false, true} {
		tagSize := uint64(12)
		if bigtiff {
			tagSize = 20
		}
		for _, v := range values {
			e := &tiffEncoder{enc: binary.LittleEndian, bigtiff: bigtiff}
			entry := bytes.Buffer{}
			overflow := &tagData{}
			if err := e.writeArray(&entry, 258, v, overflow); err != nil {
				t.Fatal(err)
			}
			written := uint64(entry.Len() + overflow.Len())
			if want := arrayFieldSize(v, bigtiff); written != want {
				t.Errorf("bigtiff=%v %T: wrote %d bytes, sized %d", bigtiff, v, written, want)
			}
			if uint64(entry.Len()) != tagSize {
				t.Errorf("bigtiff=%v %T: entry is %d bytes", bigtiff, v, entry.Len())
			}
		}
	}
}

func TestStripCompressorRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{1, 2, 3, 4}, 256)
	for _, ctype := range []CompressionType{CompressionLZW, CompressionDeflate, CompressionZstd} {
		c, err := newStripCompressor(ctype, 0)
		if err != nil {
			t.Fatal(err)
		}
		strip, err := c.compress(raw)
		if err != nil {
			t.Fatalf("%s: %v", ctype, err)
		}
		if len(strip) == 0 || len(strip) >= len(raw) {
			t.Errorf("%s: %d bytes from %d raw", ctype, len(strip), len(raw))
		}
		c.close()
	}

	c, err := newStripCompressor(CompressionNone, 0)
	if err != nil {
		t.Fatal(err)
	}
	strip, err := c.compress(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(strip, raw) {
		t.Error("uncompressed strip differs from input")
	}
}

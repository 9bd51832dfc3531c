package xtiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	photometricMinIsBlack = 1
	photometricRGB        = 2

	planarConfigContig = 1

	extraSamplesUnassAlpha = 2

	sampleFormatUInt   = 1
	sampleFormatInt    = 2
	sampleFormatIEEEFP = 3

	resolutionUnitCentimeter = 3

	dateTimeFormat = "2006:01:02 15:04:05"
)

// tiffEncoder is the built-in Encoder: a strip-based baseline TIFF and
// BigTIFF writer. The file layout is header, then all IFDs (each followed by
// its out-of-line tag values), then the strip offset and byte count arrays,
// then the pixel data.
type tiffEncoder struct {
	w       io.Writer
	enc     binary.ByteOrder
	bigtiff bool
}

// NewEncoder returns the built-in TIFF encoder writing to w.
func NewEncoder(w io.Writer) Encoder {
	return &tiffEncoder{w: w, enc: binary.LittleEndian}
}

// pageIFD carries the tags of a single page. Zero-valued optional fields are
// not written; see structure for the accounting.
type pageIFD struct {
	ImageWidth      uint32
	ImageLength     uint32
	BitsPerSample   []uint16
	Compression     uint16
	Photometric     uint16
	Description     string
	StripOffsets32  []uint32
	StripOffsets64  []uint64
	SamplesPerPixel uint16
	RowsPerStrip    uint32
	StripByteCounts []uint32
	XResolution     *rational
	YResolution     *rational
	PlanarConfig    uint16
	ResolutionUnit  uint16
	Software        string
	DateTime        string
	ExtraSamples    []uint16
	SampleFormat    []uint16

	strips [][]byte

	ntags    uint64
	tagsSize uint64
	// strileSize counts the out-of-line bytes of the strip offset and byte
	// count arrays, which live in a shared zone after all IFDs.
	strileSize uint64
}

func (p *pageIFD) structure(bigtiff bool) (ntags, size, strileSize uint64) {
	tagSize := uint64(12)
	size = 6 // 2 for the field count, 4 for the next IFD offset
	if bigtiff {
		tagSize = 20
		size = 16
	}
	count := func(n uint64) {
		ntags++
		size += n
	}
	count(tagSize) // ImageWidth
	count(tagSize) // ImageLength
	count(arrayFieldSize(p.BitsPerSample, bigtiff))
	count(tagSize) // Compression
	count(tagSize) // PhotometricInterpretation
	if len(p.Description) > 0 {
		count(arrayFieldSize(p.Description, bigtiff))
	}
	ntags++ // StripOffsets
	size += tagSize
	if len(p.StripOffsets64) > 0 {
		strileSize += arrayFieldSize(p.StripOffsets64, bigtiff) - tagSize
	} else {
		strileSize += arrayFieldSize(p.StripOffsets32, bigtiff) - tagSize
	}
	count(tagSize) // SamplesPerPixel
	count(tagSize) // RowsPerStrip
	ntags++ // StripByteCounts
	size += tagSize
	strileSize += arrayFieldSize(p.StripByteCounts, bigtiff) - tagSize
	if p.XResolution != nil {
		count(arrayFieldSize(p.XResolution, bigtiff))
		count(arrayFieldSize(p.YResolution, bigtiff))
	}
	count(tagSize) // PlanarConfiguration
	if p.ResolutionUnit > 0 {
		count(tagSize)
	}
	if len(p.Software) > 0 {
		count(arrayFieldSize(p.Software, bigtiff))
	}
	if len(p.DateTime) > 0 {
		count(arrayFieldSize(p.DateTime, bigtiff))
	}
	if len(p.ExtraSamples) > 0 {
		count(arrayFieldSize(p.ExtraSamples, bigtiff))
	}
	if len(p.SampleFormat) > 0 {
		count(arrayFieldSize(p.SampleFormat, bigtiff))
	}
	return ntags, size, strileSize
}

func (e *tiffEncoder) Encode(planes *PlaneSequence, params *WriteParameters, description []byte) error {
	e.enc = params.ByteOrder()
	e.bigtiff = params.BigTIFF
	img := planes.Array()
	dtype := img.DType()

	comp, err := newStripCompressor(params.Compression, params.CompressionLevel)
	if err != nil {
		return err
	}
	defer comp.close()

	pages := make([]*pageIFD, planes.Len())
	for i := range pages {
		plane, err := planes.Plane(i)
		if err != nil {
			return err
		}
		p := &pageIFD{
			ImageWidth:      uint32(plane.SizeX),
			ImageLength:     uint32(plane.SizeY),
			Compression:     uint16(params.Compression),
			Photometric:     photometricMinIsBlack,
			SamplesPerPixel: uint16(plane.SizeS),
			PlanarConfig:    planarConfigContig,
		}
		p.BitsPerSample = repeatUint16(dtype.bitsPerSample(), plane.SizeS)
		p.SampleFormat = repeatUint16(dtype.sampleFormat(), plane.SizeS)
		if plane.SizeS >= 3 {
			p.Photometric = photometricRGB
		}
		if plane.SizeS == 4 {
			p.ExtraSamples = []uint16{extraSamplesUnassAlpha}
		}
		if i == 0 {
			p.Description = string(description)
			p.Software = params.Software
			p.DateTime = params.ImageDate.Format(dateTimeFormat)
		}
		if params.PixelSize > 0 {
			// TIFF resolutions are pixels per unit; micrometer pixel sizes
			// translate to pixels per centimeter.
			r := newRational(1e4 / params.PixelSize)
			p.XResolution, p.YResolution = r, r
			p.ResolutionUnit = resolutionUnitCentimeter
		}

		raw := serializePixels(plane.Data, e.enc)
		rowBytes := plane.SizeX * plane.SizeS * dtype.Size()
		rows := stripRows(plane.SizeY, rowBytes)
		p.RowsPerStrip = uint32(rows)
		for y := 0; y < plane.SizeY; y += rows {
			h := rows
			if y+h > plane.SizeY {
				h = plane.SizeY - y
			}
			strip, err := comp.compress(raw[y*rowBytes : (y+h)*rowBytes])
			if err != nil {
				return err
			}
			p.strips = append(p.strips, strip)
			p.StripByteCounts = append(p.StripByteCounts, uint32(len(strip)))
		}
		pages[i] = p
	}

	// First pass sizes every IFD with placeholder offset arrays, then strip
	// offsets are assigned and the file is laid out: the offset arrays have
	// the same size as the placeholders.
	for _, p := range pages {
		if e.bigtiff {
			p.StripOffsets64 = make([]uint64, len(p.strips))
		} else {
			p.StripOffsets32 = make([]uint32, len(p.strips))
		}
		p.ntags, p.tagsSize, p.strileSize = p.structure(e.bigtiff)
	}

	off := uint64(8)
	if e.bigtiff {
		off = 16
	}
	ifdOffsets := make([]uint64, len(pages))
	for i, p := range pages {
		ifdOffsets[i] = off
		off += p.tagsSize
	}
	strileZone := off
	for _, p := range pages {
		off += p.strileSize
	}
	dataOff := off
	for _, p := range pages {
		for s, strip := range p.strips {
			if e.bigtiff {
				p.StripOffsets64[s] = dataOff
			} else {
				if dataOff > math.MaxUint32 {
					return parameterErrorf("file too large for the classic TIFF format, BigTIFF is required")
				}
				p.StripOffsets32[s] = uint32(dataOff)
			}
			dataOff += uint64(len(strip))
		}
	}
	if !e.bigtiff && dataOff > math.MaxUint32 {
		return parameterErrorf("file too large for the classic TIFF format, BigTIFF is required")
	}

	if err := e.writeHeader(e.w); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	strileData := &tagData{Offset: strileZone}
	for i, p := range pages {
		next := uint64(0)
		if i < len(pages)-1 {
			next = ifdOffsets[i+1]
		}
		if err := e.writeIFD(e.w, p, ifdOffsets[i], strileData, next); err != nil {
			return fmt.Errorf("write ifd %d: %w", i, err)
		}
	}
	if _, err := e.w.Write(strileData.Bytes()); err != nil {
		return fmt.Errorf("write strile arrays: %w", err)
	}
	for _, p := range pages {
		for _, strip := range p.strips {
			if _, err := e.w.Write(strip); err != nil {
				return fmt.Errorf("write strip data: %w", err)
			}
		}
	}
	return nil
}

func (e *tiffEncoder) writeHeader(w io.Writer) error {
	if e.bigtiff {
		buf := [16]byte{}
		if e.enc == binary.LittleEndian {
			copy(buf[0:], "II")
		} else {
			copy(buf[0:], "MM")
		}
		e.enc.PutUint16(buf[2:], 43)
		e.enc.PutUint16(buf[4:], 8)
		e.enc.PutUint16(buf[6:], 0)
		e.enc.PutUint64(buf[8:], 16)
		_, err := w.Write(buf[:])
		return err
	}
	buf := [8]byte{}
	if e.enc == binary.LittleEndian {
		copy(buf[0:], "II")
	} else {
		copy(buf[0:], "MM")
	}
	e.enc.PutUint16(buf[2:], 42)
	e.enc.PutUint32(buf[4:], 8)
	_, err := w.Write(buf[:])
	return err
}

func (e *tiffEncoder) writeIFD(w io.Writer, p *pageIFD, offset uint64, striledata *tagData, nextOff uint64) error {
	// Space for IFD entry values longer than the inline capacity.
	overflow := &tagData{
		Offset: offset + 2 + 12*p.ntags + 4,
	}
	if e.bigtiff {
		overflow.Offset = offset + 8 + 20*p.ntags + 8
	}

	var err error
	if e.bigtiff {
		err = binary.Write(w, e.enc, p.ntags)
	} else {
		err = binary.Write(w, e.enc, uint16(p.ntags))
	}
	if err != nil {
		return fmt.Errorf("write tag count: %w", err)
	}

	if err := e.writeField(w, 256, p.ImageWidth); err != nil {
		return err
	}
	if err := e.writeField(w, 257, p.ImageLength); err != nil {
		return err
	}
	if err := e.writeArray(w, 258, p.BitsPerSample, overflow); err != nil {
		return err
	}
	if err := e.writeField(w, 259, p.Compression); err != nil {
		return err
	}
	if err := e.writeField(w, 262, p.Photometric); err != nil {
		return err
	}
	if len(p.Description) > 0 {
		if err := e.writeArray(w, 270, p.Description, overflow); err != nil {
			return err
		}
	}
	if len(p.StripOffsets64) > 0 {
		err = e.writeArray(w, 273, p.StripOffsets64, striledata)
	} else {
		err = e.writeArray(w, 273, p.StripOffsets32, striledata)
	}
	if err != nil {
		return err
	}
	if err := e.writeField(w, 277, p.SamplesPerPixel); err != nil {
		return err
	}
	if err := e.writeField(w, 278, p.RowsPerStrip); err != nil {
		return err
	}
	if err := e.writeArray(w, 279, p.StripByteCounts, striledata); err != nil {
		return err
	}
	if p.XResolution != nil {
		if err := e.writeArray(w, 282, p.XResolution, overflow); err != nil {
			return err
		}
		if err := e.writeArray(w, 283, p.YResolution, overflow); err != nil {
			return err
		}
	}
	if err := e.writeField(w, 284, p.PlanarConfig); err != nil {
		return err
	}
	if p.ResolutionUnit > 0 {
		if err := e.writeField(w, 296, p.ResolutionUnit); err != nil {
			return err
		}
	}
	if len(p.Software) > 0 {
		if err := e.writeArray(w, 305, p.Software, overflow); err != nil {
			return err
		}
	}
	if len(p.DateTime) > 0 {
		if err := e.writeArray(w, 306, p.DateTime, overflow); err != nil {
			return err
		}
	}
	if len(p.ExtraSamples) > 0 {
		if err := e.writeArray(w, 338, p.ExtraSamples, overflow); err != nil {
			return err
		}
	}
	if len(p.SampleFormat) > 0 {
		if err := e.writeArray(w, 339, p.SampleFormat, overflow); err != nil {
			return err
		}
	}

	if e.bigtiff {
		err = binary.Write(w, e.enc, nextOff)
	} else {
		err = binary.Write(w, e.enc, uint32(nextOff))
	}
	if err != nil {
		return fmt.Errorf("write next offset: %w", err)
	}
	if _, err := w.Write(overflow.Bytes()); err != nil {
		return fmt.Errorf("write overflow: %w", err)
	}
	return nil
}

func repeatUint16(v uint16, n int) []uint16 {
	d := make([]uint16, n)
	for i := range d {
		d[i] = v
	}
	return d
}

func serializePixels(data interface{}, enc binary.ByteOrder) []byte {
	switch d := data.(type) {
	case []bool:
		out := make([]byte, len(d))
		for i, v := range d {
			if v {
				out[i] = 1
			}
		}
		return out
	case []uint8:
		return d
	case []int8:
		out := make([]byte, len(d))
		for i, v := range d {
			out[i] = byte(v)
		}
		return out
	case []uint16:
		out := make([]byte, 2*len(d))
		for i, v := range d {
			enc.PutUint16(out[2*i:], v)
		}
		return out
	case []int16:
		out := make([]byte, 2*len(d))
		for i, v := range d {
			enc.PutUint16(out[2*i:], uint16(v))
		}
		return out
	case []uint32:
		out := make([]byte, 4*len(d))
		for i, v := range d {
			enc.PutUint32(out[4*i:], v)
		}
		return out
	case []int32:
		out := make([]byte, 4*len(d))
		for i, v := range d {
			enc.PutUint32(out[4*i:], uint32(v))
		}
		return out
	case []float32:
		out := make([]byte, 4*len(d))
		for i, v := range d {
			enc.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out
	case []uint64:
		out := make([]byte, 8*len(d))
		for i, v := range d {
			enc.PutUint64(out[8*i:], v)
		}
		return out
	case []int64:
		out := make([]byte, 8*len(d))
		for i, v := range d {
			enc.PutUint64(out[8*i:], uint64(v))
		}
		return out
	case []float64:
		out := make([]byte, 8*len(d))
		for i, v := range d {
			enc.PutUint64(out[8*i:], math.Float64bits(v))
		}
		return out
	default:
		panic(fmt.Sprintf("bug: unvalidated pixel buffer type %T", data))
	}
}

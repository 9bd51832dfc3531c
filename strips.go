package xtiff

import (
	"bytes"
	"fmt"

	"github.com/hhrutter/lzw"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// defaultStripTargetBytes is the rough uncompressed size each strip is sized
// to. Strips small enough to keep readers responsive, large enough not to
// bloat the offset and byte count arrays.
const defaultStripTargetBytes = 1 << 20

// stripRows returns the RowsPerStrip value for a plane with the given height
// and uncompressed row size.
func stripRows(sizeY, rowBytes int) int {
	rows := defaultStripTargetBytes / rowBytes
	if rows < 1 {
		rows = 1
	}
	if rows > sizeY {
		rows = sizeY
	}
	return rows
}

// A stripCompressor compresses individual strips with the resolved codec.
// Strips are compressed independently, as the TIFF specification requires.
type stripCompressor struct {
	ctype   CompressionType
	level   int
	zstdEnc *zstd.Encoder
}

func newStripCompressor(ctype CompressionType, level int) (*stripCompressor, error) {
	c := &stripCompressor{ctype: ctype, level: level}
	if ctype == CompressionZstd {
		opts := []zstd.EOption{}
		if level > 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		enc, err := zstd.NewWriter(nil, opts...)
		if err != nil {
			return nil, fmt.Errorf("init zstd: %w", err)
		}
		c.zstdEnc = enc
	}
	return c, nil
}

func (c *stripCompressor) compress(raw []byte) ([]byte, error) {
	switch c.ctype {
	case CompressionNone:
		return raw, nil
	case CompressionLZW:
		buf := &bytes.Buffer{}
		lw := lzw.NewWriter(buf, true)
		if _, err := lw.Write(raw); err != nil {
			return nil, fmt.Errorf("lzw: %w", err)
		}
		if err := lw.Close(); err != nil {
			return nil, fmt.Errorf("lzw: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionDeflate:
		buf := &bytes.Buffer{}
		level := zlib.DefaultCompression
		if c.level > 0 {
			level = c.level
		}
		zw, err := zlib.NewWriterLevel(buf, level)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		if _, err := zw.Write(raw); err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		return c.zstdEnc.EncodeAll(raw, nil), nil
	}
	return nil, parameterErrorf("the specified compression type is not supported: %d", c.ctype)
}

func (c *stripCompressor) close() {
	if c.zstdEnc != nil {
		c.zstdEnc.Close()
	}
}

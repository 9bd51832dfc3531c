package xtiff

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"
)

// A CompressionType selects the codec used for pixel data. The values are the
// TIFF Compression tag codes.
type CompressionType uint16

const (
	CompressionNone    CompressionType = 1
	CompressionLZW     CompressionType = 5
	CompressionDeflate CompressionType = 8
	CompressionZstd    CompressionType = 50000
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZW:
		return "lzw"
	case CompressionDeflate:
		return "deflate"
	case CompressionZstd:
		return "zstd"
	}
	return "unknown"
}

func (c CompressionType) valid() bool {
	switch c {
	case CompressionNone, CompressionLZW, CompressionDeflate, CompressionZstd:
		return true
	}
	return false
}

// Derive controls whether a metadata field is derived from array or
// destination metadata when it is not set explicitly.
type Derive int

const (
	// DeriveAuto derives the field when suitable source metadata exists.
	DeriveAuto Derive = iota
	// DeriveForce requires the derivation to succeed.
	DeriveForce
	// DeriveSuppress leaves the field unset.
	DeriveSuppress
)

// DefaultBigTIFFThreshold is the uncompressed pixel data size, in bytes, at
// which BigTIFF is enabled when not requested explicitly: 4GB minus 32MB of
// metadata headroom. The constant differs across historical versions of the
// format writer; it is a configurable default, not an invariant.
const DefaultBigTIFFThreshold = int64(1)<<32 - int64(1)<<25

// WriteParameters are the resolved scalar settings of a single write call,
// built from explicit options, profile-mandated values and array
// introspection. Immutable once resolved.
type WriteParameters struct {
	Profile          Profile
	ImageName        string
	ImageDate        time.Time
	AcquisitionDate  time.Time
	ChannelNames     []string
	Description      string
	BigEndian        bool
	BigTIFF          bool
	Interleaved      bool
	Compression      CompressionType
	CompressionLevel int
	PixelSize        float64 // planar pixel size in micrometers, 0 when unset
	PixelDepth       float64 // pixel z size in micrometers, 0 when unset
	Software         string
}

// ByteOrder returns the resolved byte order as a binary.ByteOrder.
func (p *WriteParameters) ByteOrder() binary.ByteOrder {
	if p.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type config struct {
	profile            Profile
	imageName          string
	imageNameSet       bool
	deriveImageName    Derive
	imageDate          time.Time
	acquisitionDate    time.Time
	channelNames       []string
	channelNamesSet    bool
	deriveChannelNames Derive
	description        string
	descriptionSet     bool
	bigEndian          *bool
	bigTIFF            *bool
	bigTIFFThreshold   int64
	interleaved        *bool
	compression        CompressionType
	compressionLevel   int
	compressionSet     bool
	pixelSize          float64
	pixelDepth         float64
	software           string
	generator          OMEXMLGenerator
	generatorArgs      map[string]interface{}
	encoder            Encoder
	onWarning          WarningHandler
}

func defaultConfig() *config {
	return &config{
		profile:          ProfileOME,
		bigTIFFThreshold: DefaultBigTIFFThreshold,
		compression:      CompressionNone,
		software:         "xtiff",
		generator:        GetOMEXML,
		onWarning:        defaultWarningHandler,
	}
}

func (cfg *config) warn(param, format string, args ...interface{}) {
	if cfg.onWarning != nil {
		cfg.onWarning(Warning{Param: param, Message: fmt.Sprintf(format, args...)})
	}
}

// An Option configures a single write call.
type Option func(cfg *config) error

// WithProfile selects the TIFF dialect of the written file. The default is
// ProfileOME.
func WithProfile(p Profile) Option {
	return func(cfg *config) error {
		if !p.valid() {
			return parameterErrorf("unknown TIFF profile: %d", p)
		}
		cfg.profile = p
		return nil
	}
}

// WithImageName sets the OME image name explicitly.
func WithImageName(name string) Option {
	return func(cfg *config) error {
		if name == "" {
			return parameterErrorf("image name is empty")
		}
		cfg.imageName = name
		cfg.imageNameSet = true
		return nil
	}
}

// DeriveImageName controls derivation of the image name from the array name
// or the destination file name when WithImageName is not used.
func DeriveImageName(d Derive) Option {
	return func(cfg *config) error {
		cfg.deriveImageName = d
		return nil
	}
}

// WithImageDate sets the file creation timestamp stamped on the first page.
// Defaults to the current time. This does not determine the OME-XML
// AcquisitionDate element; see WithAcquisitionDate.
func WithImageDate(t time.Time) Option {
	return func(cfg *config) error {
		cfg.imageDate = t
		return nil
	}
}

// WithAcquisitionDate sets the OME-XML AcquisitionDate element. When unset,
// the element is omitted.
func WithAcquisitionDate(t time.Time) Option {
	return func(cfg *config) error {
		cfg.acquisitionDate = t
		return nil
	}
}

// WithChannelNames sets the ordered channel names. The number of names must
// match the C axis size of the image.
func WithChannelNames(names ...string) Option {
	return func(cfg *config) error {
		cfg.channelNames = names
		cfg.channelNamesSet = true
		return nil
	}
}

// DeriveChannelNames controls derivation of channel names from the array's
// channel labels when WithChannelNames is not used.
func DeriveChannelNames(d Derive) Option {
	return func(cfg *config) error {
		cfg.deriveChannelNames = d
		return nil
	}
}

// WithDescription sets the TIFF description tag. OME-TIFF files carry the
// OME-XML header in this tag instead; a custom description raises a warning
// there and is ignored.
func WithDescription(s string) Option {
	return func(cfg *config) error {
		cfg.description = s
		cfg.descriptionSet = true
		return nil
	}
}

// WithBigEndian forces the byte order. When unset, the ImageJ profile
// defaults to big endian and other profiles to the host byte order.
func WithBigEndian(b bool) Option {
	return func(cfg *config) error {
		cfg.bigEndian = &b
		return nil
	}
}

// WithBigTIFF forces the 64-bit offset file layout on or off. When unset, it
// is enabled once the uncompressed pixel data exceeds the BigTIFF threshold.
// Not supported by the ImageJ profile.
func WithBigTIFF(b bool) Option {
	return func(cfg *config) error {
		cfg.bigTIFF = &b
		return nil
	}
}

// WithBigTIFFThreshold overrides DefaultBigTIFFThreshold.
func WithBigTIFFThreshold(n int64) Option {
	return func(cfg *config) error {
		if n < 0 {
			return parameterErrorf("the BigTIFF size threshold is negative: %d", n)
		}
		cfg.bigTIFFThreshold = n
		return nil
	}
}

// WithInterleaved sets the interleaving state recorded in the OME-XML header.
// RGB(A) images are always interleaved; setting false for them raises a
// warning and is overridden.
func WithInterleaved(b bool) Option {
	return func(cfg *config) error {
		cfg.interleaved = &b
		return nil
	}
}

// WithCompression selects the pixel data codec and its level (0 to 9, 0 for
// the codec default). Not supported by the ImageJ profile.
func WithCompression(c CompressionType, level int) Option {
	return func(cfg *config) error {
		if !c.valid() {
			return parameterErrorf("the specified compression type is not supported: %d", c)
		}
		if level < 0 || level > 9 {
			return parameterErrorf("the specified compression level is not between 0 and 9: %d", level)
		}
		cfg.compression = c
		cfg.compressionLevel = level
		cfg.compressionSet = true
		return nil
	}
}

// WithPixelSize sets the planar (x/y) size of one pixel, in micrometers.
func WithPixelSize(um float64) Option {
	return func(cfg *config) error {
		if um <= 0 {
			return parameterErrorf("the specified pixel size is not larger than zero: %g", um)
		}
		cfg.pixelSize = um
		return nil
	}
}

// WithPixelDepth sets the depth (z size) of one pixel, in micrometers. Only
// meaningful for OME-TIFF files.
func WithPixelDepth(um float64) Option {
	return func(cfg *config) error {
		if um <= 0 {
			return parameterErrorf("the specified pixel depth is not larger than zero: %g", um)
		}
		cfg.pixelDepth = um
		return nil
	}
}

// WithSoftware sets the name of the software stamped on the first page. Must
// be 7-bit ASCII.
func WithSoftware(s string) Option {
	return func(cfg *config) error {
		for i := 0; i < len(s); i++ {
			if s[i] > 0x7f {
				return parameterErrorf("software tag is not 7-bit ASCII: %q", s)
			}
		}
		cfg.software = s
		return nil
	}
}

// WithOMEXMLGenerator replaces the default OME-XML generator (GetOMEXML).
func WithOMEXMLGenerator(fn OMEXMLGenerator) Option {
	return func(cfg *config) error {
		if fn == nil {
			return parameterErrorf("no function provided for generating the OME-XML")
		}
		cfg.generator = fn
		return nil
	}
}

// WithGeneratorArg passes an extension argument through to the OME-XML
// generator. The core does not interpret it.
func WithGeneratorArg(key string, value interface{}) Option {
	return func(cfg *config) error {
		if cfg.generatorArgs == nil {
			cfg.generatorArgs = make(map[string]interface{})
		}
		cfg.generatorArgs[key] = value
		return nil
	}
}

// WithWarningHandler installs the handler receiving non-fatal parameter
// conflicts. The default handler prints them to standard error.
func WithWarningHandler(h WarningHandler) Option {
	return func(cfg *config) error {
		cfg.onWarning = h
		return nil
	}
}

// WithEncoder replaces the built-in TIFF encoder collaborator.
func WithEncoder(e Encoder) Option {
	return func(cfg *config) error {
		cfg.encoder = e
		return nil
	}
}

var hostBigEndian = binary.NativeEndian.Uint16([]byte{0xAB, 0xCD}) == 0xABCD

// resolveParameters computes the WriteParameters for a normalized array.
// Precedence per parameter: explicit value, then profile-mandated value, then
// heuristic default. Conflicting but resolvable settings are surfaced as
// warnings; structural conflicts abort.
func resolveParameters(cfg *config, img *PixelArray, destName string) (*WriteParameters, error) {
	p := &WriteParameters{
		Profile:          cfg.profile,
		AcquisitionDate:  cfg.acquisitionDate,
		Compression:      CompressionNone,
		CompressionLevel: 0,
		PixelSize:        cfg.pixelSize,
		PixelDepth:       cfg.pixelDepth,
		Software:         cfg.software,
	}
	rgb := img.SizeS() >= 3

	// image name
	switch {
	case cfg.imageNameSet:
		p.ImageName = cfg.imageName
	case cfg.deriveImageName != DeriveSuppress:
		derived := ""
		if img.Name() != "" {
			derived = img.Name()
		} else if destName != "" {
			derived = filepath.Base(destName)
		}
		if cfg.deriveImageName == DeriveForce && derived == "" {
			return nil, parameterErrorf("cannot determine image name from unnamed arrays written to unknown file names")
		}
		if cfg.profile == ProfileOME {
			p.ImageName = derived
		}
	}
	if p.ImageName != "" && cfg.profile != ProfileOME {
		cfg.warn("imageName", "the %s profile does not support image names, ignoring image name", cfg.profile)
		p.ImageName = ""
	}

	// image date
	p.ImageDate = cfg.imageDate
	if p.ImageDate.IsZero() {
		p.ImageDate = time.Now()
	}

	// byte order
	if cfg.bigEndian != nil {
		p.BigEndian = *cfg.bigEndian
	} else {
		p.BigEndian = cfg.profile == ProfileImageJ || hostBigEndian
	}

	// compression
	if cfg.compressionSet && cfg.compression != CompressionNone {
		if cfg.profile == ProfileImageJ {
			return nil, profileErrorf("the %s profile does not support compression", cfg.profile)
		}
		p.Compression = cfg.compression
		p.CompressionLevel = cfg.compressionLevel
	}

	// physical pixel size and depth
	if p.PixelDepth != 0 && cfg.profile != ProfileOME {
		cfg.warn("pixelDepth", "pixel depth information is supported for %s only, ignoring pixel depth", ProfileOME)
		p.PixelDepth = 0
	}

	// channel names
	switch {
	case cfg.channelNamesSet:
		p.ChannelNames = cfg.channelNames
	case cfg.deriveChannelNames != DeriveSuppress:
		if cfg.deriveChannelNames == DeriveForce {
			if !img.hadChannelAxis {
				return nil, parameterErrorf("cannot determine channel names from arrays without a channel dimension")
			}
			if img.ChannelLabels() == nil {
				return nil, parameterErrorf("cannot determine channel names from arrays without channel labels")
			}
		}
		if cfg.profile == ProfileOME {
			p.ChannelNames = img.ChannelLabels()
		}
	}
	if p.ChannelNames != nil && len(p.ChannelNames) != img.SizeC() {
		return nil, parameterErrorf("invalid number of channel names: %d (expected: %d)", len(p.ChannelNames), img.SizeC())
	}
	if p.ChannelNames != nil && cfg.profile != ProfileOME {
		cfg.warn("channelNames", "channel names are supported for %s only, ignoring channel names", ProfileOME)
		p.ChannelNames = nil
	}

	// BigTIFF
	if cfg.bigTIFF != nil {
		if *cfg.bigTIFF && cfg.profile == ProfileImageJ {
			return nil, parameterErrorf("BigTIFF is not supported for the %s profile", cfg.profile)
		}
		p.BigTIFF = *cfg.bigTIFF
	} else {
		p.BigTIFF = img.ByteSize() >= cfg.bigTIFFThreshold
		if p.BigTIFF && cfg.profile == ProfileImageJ {
			cfg.warn("bigFileFormat", "BigTIFF is not supported for the %s profile, disabling BigTIFF", cfg.profile)
			p.BigTIFF = false
		}
	}

	// interleaving
	switch {
	case rgb:
		if cfg.interleaved != nil && !*cfg.interleaved {
			cfg.warn("interleaved", "RGB(A) images must be saved as interleaved, ignoring interleaved parameter")
		}
		p.Interleaved = true
	case cfg.interleaved != nil:
		p.Interleaved = *cfg.interleaved
	default:
		p.Interleaved = cfg.profile != ProfileOME
	}

	// description
	p.Description = cfg.description
	if cfg.descriptionSet && cfg.profile == ProfileOME {
		cfg.warn("description", "custom TIFF description tags are not supported for %s, ignoring description", ProfileOME)
		p.Description = ""
	}
	if cfg.generatorArgs != nil && cfg.profile != ProfileOME {
		cfg.warn("metadataGenerator", "additional generator arguments are supported for %s only, ignoring them", ProfileOME)
	}

	return p, nil
}

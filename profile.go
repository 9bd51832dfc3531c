package xtiff

// A Profile selects the TIFF dialect of the written file and the constraints
// that come with it.
type Profile int

const (
	// ProfilePlain writes a plain TIFF without generated metadata. No dtype
	// restrictions apply.
	ProfilePlain Profile = iota
	// ProfileImageJ writes the undocumented but stable file layout expected by
	// the ImageJ software. Restricted to uint8, uint16 and float32 (uint8 for
	// RGB), big-endian by default, no BigTIFF, no compression.
	ProfileImageJ
	// ProfileOME writes an OME-TIFF with a minimal OME-XML header.
	ProfileOME
)

func (p Profile) String() string {
	switch p {
	case ProfilePlain:
		return "TIFF"
	case ProfileImageJ:
		return "ImageJ"
	case ProfileOME:
		return "OME-TIFF"
	}
	return "unknown"
}

func (p Profile) valid() bool {
	return p == ProfilePlain || p == ProfileImageJ || p == ProfileOME
}

// Per-profile dtype tables, resolved once at entry. A nil set means no
// restriction.
var profileDTypes = map[Profile]map[DType]bool{
	ProfilePlain: nil,
	ProfileImageJ: {
		Uint8:   true,
		Uint16:  true,
		Float32: true,
	},
	ProfileOME: {
		Bool:    true,
		Int8:    true,
		Int16:   true,
		Int32:   true,
		Uint8:   true,
		Uint16:  true,
		Uint32:  true,
		Float32: true,
		Float64: true,
	},
}

func profileDTypeList(p Profile) string {
	switch p {
	case ProfileImageJ:
		return "uint8, uint16, float32"
	case ProfileOME:
		return "bool, int8, int16, int32, uint8, uint16, uint32, float32, float64"
	}
	return ""
}

// validateProfile checks a normalized array against the profile's dtype and
// axis rules. It never coerces: it returns nil or an error.
func validateProfile(a *PixelArray, p Profile) error {
	allowed := profileDTypes[p]
	if allowed != nil && !allowed[a.DType()] {
		return profileErrorf("the %s profile does not support the %s data type (supported: %s)",
			p, a.DType(), profileDTypeList(p))
	}
	if p == ProfileImageJ && a.SizeS() >= 3 && a.DType() != Uint8 {
		return profileErrorf("the %s profile does not support the %s data type for RGB(A) images (supported: uint8)",
			p, a.DType())
	}
	return nil
}

package xtiff

// A PixelArray is an N-dimensional numeric pixel buffer in C order (the last
// axis varies fastest). Supported axis layouts, from rank 2 to 6:
//
//	(Y, X)
//	(C, Y, X)
//	(Z, C, Y, X)
//	(T, Z, C, Y, X)
//	(T, Z, C, Y, X, S)
//
// The trailing S axis, when present, holds the samples of an RGB(A) pixel and
// must have size 1, 3 or 4. Normalize pads the missing leading axes with size
// 1 so that downstream code always sees the canonical (T, Z, C, Y, X, S)
// layout. The buffer is never copied or mutated: normalized arrays and planes
// are views into the caller's slice.
type PixelArray struct {
	data           interface{}
	dtype          DType
	shape          []int
	name           string
	channelLabels  []string
	canonical      bool
	hadChannelAxis bool
}

// ArrayOption configures optional PixelArray metadata.
type ArrayOption func(a *PixelArray) error

// ArrayName attaches a source name to the array. OME-TIFF image names can be
// derived from it.
func ArrayName(name string) ArrayOption {
	return func(a *PixelArray) error {
		a.name = name
		return nil
	}
}

// ChannelLabels attaches per-channel coordinate labels to the array's C axis.
// OME-TIFF channel names can be derived from them. The number of labels must
// match the C axis size.
func ChannelLabels(labels ...string) ArrayOption {
	return func(a *PixelArray) error {
		a.channelLabels = labels
		return nil
	}
}

// NewPixelArray wraps a typed slice as a PixelArray of the given shape. The
// element type is inferred from the slice type; the slice length must equal
// the product of the axis sizes.
func NewPixelArray(data interface{}, shape []int, options ...ArrayOption) (*PixelArray, error) {
	dtype, n, err := dtypeOf(data)
	if err != nil {
		return nil, err
	}
	elems := 1
	for i, s := range shape {
		if s <= 0 {
			return nil, shapeErrorf("axis %d has size %d (axis sizes must be >= 1)", i, s)
		}
		elems *= s
	}
	if len(shape) == 0 || elems != n {
		return nil, shapeErrorf("pixel buffer holds %d elements, shape %v requires %d", n, shape, elems)
	}
	a := &PixelArray{
		data:  data,
		dtype: dtype,
		shape: append([]int(nil), shape...),
	}
	for _, o := range options {
		if err := o(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Data returns the underlying typed slice. Planes handed to an encoder alias
// this slice; do not mutate it while a write is in progress.
func (a *PixelArray) Data() interface{} { return a.data }

// DType returns the element type.
func (a *PixelArray) DType() DType { return a.dtype }

// Shape returns a copy of the axis sizes.
func (a *PixelArray) Shape() []int { return append([]int(nil), a.shape...) }

// Rank returns the number of axes.
func (a *PixelArray) Rank() int { return len(a.shape) }

// Name returns the source name attached with ArrayName, if any.
func (a *PixelArray) Name() string { return a.name }

// ChannelLabels returns the labels attached with ChannelLabels, if any.
func (a *PixelArray) ChannelLabels() []string { return a.channelLabels }

// ByteSize returns the uncompressed size of the pixel data in bytes.
func (a *PixelArray) ByteSize() int64 {
	elems := int64(1)
	for _, s := range a.shape {
		elems *= int64(s)
	}
	return elems * int64(a.dtype.Size())
}

// Sizes of the canonical axes. Valid on arrays returned by Normalize; zero
// otherwise.
func (a *PixelArray) SizeT() int { return a.canonicalSize(0) }
func (a *PixelArray) SizeZ() int { return a.canonicalSize(1) }
func (a *PixelArray) SizeC() int { return a.canonicalSize(2) }
func (a *PixelArray) SizeY() int { return a.canonicalSize(3) }
func (a *PixelArray) SizeX() int { return a.canonicalSize(4) }
func (a *PixelArray) SizeS() int { return a.canonicalSize(5) }

func (a *PixelArray) canonicalSize(axis int) int {
	if !a.canonical {
		return 0
	}
	return a.shape[axis]
}

// Normalize canonicalizes the array to the (T, Z, C, Y, X, S) layout, padding
// missing leading axes with size 1. The returned array is a view sharing the
// receiver's buffer. It fails with a ShapeError when the rank is outside
// [2, 6], when the trailing sample axis size is not 1, 3 or 4, or when the
// number of channel labels does not match the C axis size.
func (a *PixelArray) Normalize() (*PixelArray, error) {
	if a.canonical {
		return a, nil
	}
	var shape [6]int
	hadChannelAxis := true
	switch a.Rank() {
	case 2: // YX
		shape = [6]int{1, 1, 1, a.shape[0], a.shape[1], 1}
		hadChannelAxis = false
	case 3: // CYX
		shape = [6]int{1, 1, a.shape[0], a.shape[1], a.shape[2], 1}
	case 4: // ZCYX
		shape = [6]int{1, a.shape[0], a.shape[1], a.shape[2], a.shape[3], 1}
	case 5: // TZCYX
		shape = [6]int{a.shape[0], a.shape[1], a.shape[2], a.shape[3], a.shape[4], 1}
	case 6: // TZCYXS
		copy(shape[:], a.shape)
		if s := shape[5]; s != 1 && s != 3 && s != 4 {
			return nil, shapeErrorf("sample axis has size %d (expected 1, 3 or 4 for grayscale, RGB or RGBA)", s)
		}
	default:
		return nil, shapeErrorf("unsupported number of dimensions: %d (supported: 2, 3, 4, 5, 6)", a.Rank())
	}
	if a.channelLabels != nil && len(a.channelLabels) != shape[2] {
		return nil, shapeErrorf("invalid number of channel labels: %d (expected: %d)", len(a.channelLabels), shape[2])
	}
	return &PixelArray{
		data:           a.data,
		dtype:          a.dtype,
		shape:          shape[:],
		name:           a.name,
		channelLabels:  a.channelLabels,
		canonical:      true,
		hadChannelAxis: hadChannelAxis,
	}, nil
}

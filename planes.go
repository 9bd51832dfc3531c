package xtiff

// A Plane is a single 2-D (Y, X) or 2-D plus sample (Y, X, S) slice of a
// normalized array. Data is a typed view into the source buffer of length
// SizeY*SizeX*SizeS; it is not independently owned and must not be mutated
// while an encoder consumes it.
type Plane struct {
	T, Z, C             int
	SizeY, SizeX, SizeS int
	Data                interface{}
}

// A PlaneSequence lazily yields the planes of a normalized array in the order
// a TIFF encoder must write them: T outermost, then Z, then C innermost (the
// OME "XYCZT" dimension order read backward). The sequence holds only the
// array reference and a cursor; it is re-derivable from the same array at any
// time and supports random access, so it can be restarted freely.
type PlaneSequence struct {
	img  *PixelArray
	next int
}

// NewPlaneSequence derives the plane sequence of an array, normalizing it
// first if necessary.
func NewPlaneSequence(img *PixelArray) (*PlaneSequence, error) {
	norm, err := img.Normalize()
	if err != nil {
		return nil, err
	}
	return &PlaneSequence{img: norm}, nil
}

// Array returns the normalized array the sequence is derived from.
func (s *PlaneSequence) Array() *PixelArray { return s.img }

// Len returns the number of planes, T*Z*C.
func (s *PlaneSequence) Len() int {
	return s.img.SizeT() * s.img.SizeZ() * s.img.SizeC()
}

// Plane returns the i-th plane without touching the cursor.
func (s *PlaneSequence) Plane(i int) (Plane, error) {
	if i < 0 || i >= s.Len() {
		return Plane{}, shapeErrorf("plane index %d out of range (sequence holds %d planes)", i, s.Len())
	}
	sizeZ, sizeC := s.img.SizeZ(), s.img.SizeC()
	elems := s.img.SizeY() * s.img.SizeX() * s.img.SizeS()
	return Plane{
		T:     i / (sizeZ * sizeC),
		Z:     (i / sizeC) % sizeZ,
		C:     i % sizeC,
		SizeY: s.img.SizeY(),
		SizeX: s.img.SizeX(),
		SizeS: s.img.SizeS(),
		Data:  sliceRange(s.img.data, i*elems, (i+1)*elems),
	}, nil
}

// Next returns the plane at the cursor and advances it. The second return is
// false once the sequence is exhausted.
func (s *PlaneSequence) Next() (Plane, bool) {
	if s.next >= s.Len() {
		return Plane{}, false
	}
	p, err := s.Plane(s.next)
	if err != nil {
		return Plane{}, false
	}
	s.next++
	return p, true
}

// Reset rewinds the cursor to the first plane.
func (s *PlaneSequence) Reset() { s.next = 0 }

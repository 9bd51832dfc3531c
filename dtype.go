package xtiff

import "fmt"

// A DType identifies the element type of a pixel buffer.
type DType string

const (
	Bool    DType = "bool"
	Int8    DType = "int8"
	Int16   DType = "int16"
	Int32   DType = "int32"
	Int64   DType = "int64"
	Uint8   DType = "uint8"
	Uint16  DType = "uint16"
	Uint32  DType = "uint32"
	Uint64  DType = "uint64"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

func (d DType) String() string {
	return string(d)
}

// Size returns the number of bytes occupied by a single element.
func (d DType) Size() int {
	switch d {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func (d DType) bitsPerSample() uint16 {
	return uint16(8 * d.Size())
}

func (d DType) sampleFormat() uint16 {
	switch d {
	case Int8, Int16, Int32, Int64:
		return sampleFormatInt
	case Float32, Float64:
		return sampleFormatIEEEFP
	default:
		return sampleFormatUInt
	}
}

// omeTypes maps a DType onto the OME-XML Pixels Type attribute value.
var omeTypes = map[DType]string{
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Float32: "float",
	Float64: "double",
}

// dtypeOf inspects a pixel buffer and returns its element type and length.
func dtypeOf(data interface{}) (DType, int, error) {
	switch d := data.(type) {
	case []bool:
		return Bool, len(d), nil
	case []int8:
		return Int8, len(d), nil
	case []int16:
		return Int16, len(d), nil
	case []int32:
		return Int32, len(d), nil
	case []int64:
		return Int64, len(d), nil
	case []uint8:
		return Uint8, len(d), nil
	case []uint16:
		return Uint16, len(d), nil
	case []uint32:
		return Uint32, len(d), nil
	case []uint64:
		return Uint64, len(d), nil
	case []float32:
		return Float32, len(d), nil
	case []float64:
		return Float64, len(d), nil
	default:
		return "", 0, parameterErrorf("unsupported pixel buffer type %T (expected a slice of bool, intN, uintN, float32 or float64)", data)
	}
}

func sliceRange(data interface{}, lo, hi int) interface{} {
	switch d := data.(type) {
	case []bool:
		return d[lo:hi]
	case []int8:
		return d[lo:hi]
	case []int16:
		return d[lo:hi]
	case []int32:
		return d[lo:hi]
	case []int64:
		return d[lo:hi]
	case []uint8:
		return d[lo:hi]
	case []uint16:
		return d[lo:hi]
	case []uint32:
		return d[lo:hi]
	case []uint64:
		return d[lo:hi]
	case []float32:
		return d[lo:hi]
	case []float64:
		return d[lo:hi]
	default:
		panic(fmt.Sprintf("bug: unvalidated pixel buffer type %T", data))
	}
}

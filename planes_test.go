package xtiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaneSequenceOrder(t *testing.T) {
	img := arrayOf(t, Uint16, []int{2, 3, 4, 5, 6})
	seq, err := NewPlaneSequence(img)
	require.NoError(t, err)
	require.Equal(t, 24, seq.Len())

	var got [][3]int
	for p, ok := seq.Next(); ok; p, ok = seq.Next() {
		got = append(got, [3]int{p.T, p.Z, p.C})
		assert.Equal(t, 5, p.SizeY)
		assert.Equal(t, 6, p.SizeX)
		assert.Equal(t, 1, p.SizeS)
		assert.Len(t, p.Data.([]uint16), 30)
	}
	require.Len(t, got, 24)

	var want [][3]int
	for zt := 0; zt < 2; zt++ {
		for z := 0; z < 3; z++ {
			for c := 0; c < 4; c++ {
				want = append(want, [3]int{zt, z, c})
			}
		}
	}
	assert.Equal(t, want, got)
}

func TestPlaneSequencePlaneData(t *testing.T) {
	data := make([]uint8, 2*3*4)
	for i := range data {
		data[i] = uint8(i)
	}
	img, err := NewPixelArray(data, []int{2, 3, 4})
	require.NoError(t, err)
	seq, err := NewPlaneSequence(img)
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())

	p, err := seq.Plane(1)
	require.NoError(t, err)
	assert.Equal(t, data[12:24], p.Data.([]uint8))

	// Planes are views: mutating the source buffer is visible through them.
	data[12] = 200
	assert.Equal(t, uint8(200), p.Data.([]uint8)[0])
}

func TestPlaneSequenceSinglePlane(t *testing.T) {
	data := make([]float32, 20)
	img, err := NewPixelArray(data, []int{4, 5})
	require.NoError(t, err)
	seq, err := NewPlaneSequence(img)
	require.NoError(t, err)
	require.Equal(t, 1, seq.Len())

	p, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, 0, p.T)
	assert.Equal(t, 0, p.Z)
	assert.Equal(t, 0, p.C)
	assert.Len(t, p.Data.([]float32), 20)

	_, ok = seq.Next()
	assert.False(t, ok)
}

func TestPlaneSequenceReset(t *testing.T) {
	img := arrayOf(t, Uint8, []int{3, 4, 5})
	seq, err := NewPlaneSequence(img)
	require.NoError(t, err)

	var first []int
	for p, ok := seq.Next(); ok; p, ok = seq.Next() {
		first = append(first, p.C)
	}
	seq.Reset()
	var second []int
	for p, ok := seq.Next(); ok; p, ok = seq.Next() {
		second = append(second, p.C)
	}
	assert.Equal(t, first, second)
}

func TestPlaneSequenceIndexOutOfRange(t *testing.T) {
	img := arrayOf(t, Uint8, []int{3, 4, 5})
	seq, err := NewPlaneSequence(img)
	require.NoError(t, err)

	var se ShapeError
	_, err = seq.Plane(3)
	assert.ErrorAs(t, err, &se)
	_, err = seq.Plane(-1)
	assert.ErrorAs(t, err, &se)
}

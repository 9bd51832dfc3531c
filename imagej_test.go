package xtiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageJDescriptionHyperstack(t *testing.T) {
	img := arrayOf(t, Uint16, []int{2, 3, 4, 5, 6})
	desc := imageJDescription(img, &WriteParameters{Profile: ProfileImageJ})
	assert.Equal(t,
		"ImageJ=1.11a\n"+
			"images=24\n"+
			"channels=4\n"+
			"slices=3\n"+
			"frames=2\n"+
			"hyperstack=true\n"+
			"mode=grayscale\n"+
			"loop=false\n",
		desc)
}

func TestImageJDescriptionSinglePlane(t *testing.T) {
	img := arrayOf(t, Uint8, []int{5, 6})
	desc := imageJDescription(img, &WriteParameters{Profile: ProfileImageJ})
	assert.Equal(t,
		"ImageJ=1.11a\n"+
			"images=1\n"+
			"hyperstack=true\n"+
			"loop=false\n",
		desc)
}

func TestImageJDescriptionPixelSizeUnit(t *testing.T) {
	img := arrayOf(t, Float32, []int{3, 5, 6})
	desc := imageJDescription(img, &WriteParameters{Profile: ProfileImageJ, PixelSize: 0.5})
	assert.Equal(t,
		"ImageJ=1.11a\n"+
			"images=3\n"+
			"channels=3\n"+
			"hyperstack=true\n"+
			"mode=grayscale\n"+
			"unit=micron\n"+
			"loop=false\n",
		desc)
}

package xtiff

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshalOME(t *testing.T, doc []byte) *OME {
	t.Helper()
	out := &OME{}
	require.NoError(t, xml.Unmarshal(doc, out))
	return out
}

func TestGetOMEXMLChannels(t *testing.T) {
	img := arrayOf(t, Uint16, []int{3, 4, 5})
	params := &WriteParameters{
		Profile:      ProfileOME,
		ChannelNames: []string{"DNA", "CD45", "CD3"},
	}
	doc, err := GetOMEXML(img, params, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc), "<?xml"))

	ome := unmarshalOME(t, doc)
	pixels := ome.Image.Pixels
	assert.Equal(t, "uint16", pixels.Type)
	assert.Equal(t, 5, pixels.SizeX)
	assert.Equal(t, 4, pixels.SizeY)
	assert.Equal(t, 3, pixels.SizeC)
	assert.Equal(t, 1, pixels.SizeZ)
	assert.Equal(t, 1, pixels.SizeT)
	assert.Equal(t, "XYCZT", pixels.DimensionOrder)
	require.Len(t, pixels.Channels, 3)
	for i, name := range []string{"DNA", "CD45", "CD3"} {
		assert.Equal(t, name, pixels.Channels[i].Name)
		assert.Equal(t, 1, pixels.Channels[i].SamplesPerPixel)
	}
	assert.True(t, strings.HasPrefix(ome.UUID, "urn:uuid:"))
	assert.NotNil(t, pixels.TiffData)
}

func TestGetOMEXMLAutoChannelNames(t *testing.T) {
	img := arrayOf(t, Uint8, []int{2, 4, 5})
	doc, err := GetOMEXML(img, &WriteParameters{Profile: ProfileOME}, nil)
	require.NoError(t, err)
	pixels := unmarshalOME(t, doc).Image.Pixels
	require.Len(t, pixels.Channels, 2)
	assert.Equal(t, "Channel 0", pixels.Channels[0].Name)
	assert.Equal(t, "Channel 1", pixels.Channels[1].Name)
	assert.Equal(t, "Channel:0:1", pixels.Channels[1].ID)
}

func TestGetOMEXMLPhysicalSizes(t *testing.T) {
	img := arrayOf(t, Float32, []int{2, 3, 2, 4, 5})
	params := &WriteParameters{
		Profile:    ProfileOME,
		PixelSize:  0.65,
		PixelDepth: 1.5,
	}
	doc, err := GetOMEXML(img, params, nil)
	require.NoError(t, err)
	pixels := unmarshalOME(t, doc).Image.Pixels
	assert.Equal(t, "float", pixels.Type)
	assert.Equal(t, "0.65", pixels.PhysicalSizeX)
	assert.Equal(t, "0.65", pixels.PhysicalSizeY)
	assert.Equal(t, "1.5", pixels.PhysicalSizeZ)
	assert.Equal(t, "µm", pixels.PhysicalSizeXUnit)
	assert.Equal(t, "µm", pixels.PhysicalSizeYUnit)
	assert.Equal(t, "µm", pixels.PhysicalSizeZUnit)
	assert.Equal(t, 2, pixels.SizeZ)
	assert.Equal(t, 3, pixels.SizeT)

	doc, err = GetOMEXML(img, &WriteParameters{Profile: ProfileOME}, nil)
	require.NoError(t, err)
	pixels = unmarshalOME(t, doc).Image.Pixels
	assert.Empty(t, pixels.PhysicalSizeX)
	assert.Empty(t, pixels.PhysicalSizeZUnit)
}

func TestGetOMEXMLAcquisitionDate(t *testing.T) {
	img := arrayOf(t, Uint16, []int{4, 5})
	doc, err := GetOMEXML(img, &WriteParameters{Profile: ProfileOME}, nil)
	require.NoError(t, err)
	assert.Empty(t, unmarshalOME(t, doc).Image.AcquisitionDate)

	params := &WriteParameters{
		Profile:         ProfileOME,
		AcquisitionDate: time.Date(2021, 4, 7, 12, 30, 5, 0, time.UTC),
	}
	doc, err = GetOMEXML(img, params, nil)
	require.NoError(t, err)
	assert.Equal(t, "2021-04-07T12:30:05", unmarshalOME(t, doc).Image.AcquisitionDate)
}

func TestGetOMEXMLBigEndianFlag(t *testing.T) {
	img := arrayOf(t, Uint16, []int{4, 5})
	doc, err := GetOMEXML(img, &WriteParameters{Profile: ProfileOME, BigEndian: true, Interleaved: true}, nil)
	require.NoError(t, err)
	pixels := unmarshalOME(t, doc).Image.Pixels
	assert.Equal(t, "true", pixels.BigEndian)
	assert.Equal(t, "true", pixels.Interleaved)
}

func TestGetOMEXMLRejectsUnsupportedDType(t *testing.T) {
	img := arrayOf(t, Uint64, []int{4, 5})
	_, err := GetOMEXML(img, &WriteParameters{Profile: ProfileOME}, nil)
	var pe ProfileError
	assert.ErrorAs(t, err, &pe)
}

func TestGetOMEXMLRequiresNormalizedArray(t *testing.T) {
	a, err := NewPixelArray(make([]uint16, 20), []int{4, 5})
	require.NoError(t, err)
	_, err = GetOMEXML(a, &WriteParameters{Profile: ProfileOME}, nil)
	var se ShapeError
	assert.ErrorAs(t, err, &se)
}

func TestGetOMEXMLRGBSamplesPerPixel(t *testing.T) {
	img := arrayOf(t, Uint8, []int{1, 1, 1, 4, 5, 3})
	doc, err := GetOMEXML(img, &WriteParameters{Profile: ProfileOME, Interleaved: true}, nil)
	require.NoError(t, err)
	pixels := unmarshalOME(t, doc).Image.Pixels
	require.Len(t, pixels.Channels, 1)
	assert.Equal(t, 3, pixels.Channels[0].SamplesPerPixel)
}

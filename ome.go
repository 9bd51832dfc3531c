package xtiff

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

const (
	omeNamespace      = "http://www.openmicroscopy.org/Schemas/OME/2016-06"
	omeSchemaLocation = omeNamespace + "/ome.xsd"
	xsiNamespace      = "http://www.w3.org/2001/XMLSchema-instance"

	// omeDimensionOrder is fixed: planes are sequenced C innermost, then Z,
	// then T, which is "XYCZT" read backward.
	omeDimensionOrder = "XYCZT"

	acquisitionDateFormat = "2006-01-02T15:04:05"
)

// An OMEXMLGenerator produces the OME-XML header document for a normalized
// array and resolved write parameters. The returned bytes must form a
// well-formed UTF-8 XML document with the minimal Image/Pixels/Channel
// structure; extra holds uninterpreted extension arguments supplied with
// WithGeneratorArg. GetOMEXML is the reference implementation.
type OMEXMLGenerator func(img *PixelArray, params *WriteParameters, extra map[string]interface{}) ([]byte, error)

// OME is the root element of a minimal OME-XML document.
type OME struct {
	XMLName        xml.Name `xml:"OME"`
	Namespace      string   `xml:"xmlns,attr"`
	XSINamespace   string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	UUID           string   `xml:"UUID,attr,omitempty"`
	Image          OMEImage `xml:"Image"`
}

type OMEImage struct {
	ID              string    `xml:"ID,attr"`
	Name            string    `xml:"Name,attr,omitempty"`
	AcquisitionDate string    `xml:"AcquisitionDate,omitempty"`
	Pixels          OMEPixels `xml:"Pixels"`
}

type OMEPixels struct {
	ID                string       `xml:"ID,attr"`
	Type              string       `xml:"Type,attr"`
	SizeX             int          `xml:"SizeX,attr"`
	SizeY             int          `xml:"SizeY,attr"`
	SizeC             int          `xml:"SizeC,attr"`
	SizeZ             int          `xml:"SizeZ,attr"`
	SizeT             int          `xml:"SizeT,attr"`
	DimensionOrder    string       `xml:"DimensionOrder,attr"`
	Interleaved       string       `xml:"Interleaved,attr"`
	BigEndian         string       `xml:"BigEndian,attr"`
	PhysicalSizeX     string       `xml:"PhysicalSizeX,attr,omitempty"`
	PhysicalSizeXUnit string       `xml:"PhysicalSizeXUnit,attr,omitempty"`
	PhysicalSizeY     string       `xml:"PhysicalSizeY,attr,omitempty"`
	PhysicalSizeYUnit string       `xml:"PhysicalSizeYUnit,attr,omitempty"`
	PhysicalSizeZ     string       `xml:"PhysicalSizeZ,attr,omitempty"`
	PhysicalSizeZUnit string       `xml:"PhysicalSizeZUnit,attr,omitempty"`
	Channels          []OMEChannel `xml:"Channel"`
	TiffData          *OMETiffData `xml:"TiffData"`
}

type OMEChannel struct {
	ID              string `xml:"ID,attr"`
	SamplesPerPixel int    `xml:"SamplesPerPixel,attr"`
	Name            string `xml:"Name,attr,omitempty"`
}

type OMETiffData struct{}

func xmlBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func xmlFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// GetOMEXML is the default OME-XML generator: one Image holding one Pixels
// element sized from the normalized array, one Channel element per C axis
// entry, and a TiffData element. Channel names come from the resolved
// parameters, or are generated as "Channel <i>" (0-based) when none was
// provided. Extension arguments are ignored.
//
// Note that while TIFF itself only supports ASCII descriptions, OME-XML
// requires UTF-8: the micron sign in the PhysicalSize unit attributes is not
// representable in ASCII, so the returned document must be embedded verbatim,
// without re-encoding.
func GetOMEXML(img *PixelArray, params *WriteParameters, extra map[string]interface{}) ([]byte, error) {
	if !img.canonical {
		return nil, shapeErrorf("OME-XML generation requires a normalized array")
	}
	pixelType, ok := omeTypes[img.DType()]
	if !ok {
		return nil, profileErrorf("the %s profile does not support the %s data type (supported: %s)",
			ProfileOME, img.DType(), profileDTypeList(ProfileOME))
	}
	if params.ChannelNames != nil && len(params.ChannelNames) != img.SizeC() {
		return nil, parameterErrorf("invalid number of channel names: %d (expected: %d)",
			len(params.ChannelNames), img.SizeC())
	}

	doc := OME{
		Namespace:      omeNamespace,
		XSINamespace:   xsiNamespace,
		SchemaLocation: omeNamespace + " " + omeSchemaLocation,
		UUID:           "urn:uuid:" + uuid.NewString(),
		Image: OMEImage{
			ID:   "Image:0",
			Name: params.ImageName,
			Pixels: OMEPixels{
				ID:             "Pixels:0",
				Type:           pixelType,
				SizeX:          img.SizeX(),
				SizeY:          img.SizeY(),
				SizeC:          img.SizeC(),
				SizeZ:          img.SizeZ(),
				SizeT:          img.SizeT(),
				DimensionOrder: omeDimensionOrder,
				Interleaved:    xmlBool(params.Interleaved),
				BigEndian:      xmlBool(params.BigEndian),
				TiffData:       &OMETiffData{},
			},
		},
	}
	if !params.AcquisitionDate.IsZero() {
		doc.Image.AcquisitionDate = params.AcquisitionDate.Format(acquisitionDateFormat)
	}
	if params.PixelSize > 0 {
		doc.Image.Pixels.PhysicalSizeX = xmlFloat(params.PixelSize)
		doc.Image.Pixels.PhysicalSizeXUnit = "µm"
		doc.Image.Pixels.PhysicalSizeY = xmlFloat(params.PixelSize)
		doc.Image.Pixels.PhysicalSizeYUnit = "µm"
	}
	if params.PixelDepth > 0 {
		doc.Image.Pixels.PhysicalSizeZ = xmlFloat(params.PixelDepth)
		doc.Image.Pixels.PhysicalSizeZUnit = "µm"
	}
	for c := 0; c < img.SizeC(); c++ {
		channel := OMEChannel{
			ID:              fmt.Sprintf("Channel:0:%d", c),
			SamplesPerPixel: img.SizeS(),
		}
		if params.ChannelNames != nil {
			channel.Name = params.ChannelNames[c]
		} else {
			channel.Name = fmt.Sprintf("Channel %d", c)
		}
		doc.Image.Pixels.Channels = append(doc.Image.Pixels.Channels, channel)
	}

	body, err := xml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal OME-XML: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

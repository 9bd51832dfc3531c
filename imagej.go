package xtiff

import (
	"fmt"
	"strings"
)

// imageJVersion is the version string ImageJ-compatible writers conventionally
// stamp into the description block.
const imageJVersion = "1.11a"

// imageJDescription builds the flat key-value metadata block that ImageJ
// parses from the first page's description tag. The keys and their order
// follow ImageJ's undocumented but stable convention for hyperstacks.
func imageJDescription(img *PixelArray, params *WriteParameters) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ImageJ=%s\n", imageJVersion)
	fmt.Fprintf(&b, "images=%d\n", img.SizeT()*img.SizeZ()*img.SizeC())
	if img.SizeC() > 1 {
		fmt.Fprintf(&b, "channels=%d\n", img.SizeC())
	}
	if img.SizeZ() > 1 {
		fmt.Fprintf(&b, "slices=%d\n", img.SizeZ())
	}
	if img.SizeT() > 1 {
		fmt.Fprintf(&b, "frames=%d\n", img.SizeT())
	}
	b.WriteString("hyperstack=true\n")
	if img.SizeC() > 1 {
		b.WriteString("mode=grayscale\n")
	}
	if params.PixelSize > 0 {
		b.WriteString("unit=micron\n")
	}
	b.WriteString("loop=false\n")
	return b.String()
}

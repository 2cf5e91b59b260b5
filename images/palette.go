// Package images - Class color palette for mask and overlay rendering.
package images

import "image/color"

// Palette is the Ultralytics class color table, treated as immutable
// configuration data. Consumers index it by class via ClassColor.
var Palette = []color.RGBA{
	{0xFF, 0x38, 0x38, 0xFF},
	{0xFF, 0x9D, 0x97, 0xFF},
	{0xFF, 0x70, 0x1F, 0xFF},
	{0xFF, 0xB2, 0x1D, 0xFF},
	{0xCF, 0xD2, 0x31, 0xFF},
	{0x48, 0xF9, 0x0A, 0xFF},
	{0x92, 0xCC, 0x17, 0xFF},
	{0x3D, 0xDB, 0x86, 0xFF},
	{0x1A, 0x93, 0x34, 0xFF},
	{0x00, 0xD4, 0xBB, 0xFF},
	{0x2C, 0x99, 0xA8, 0xFF},
	{0x00, 0xC2, 0xFF, 0xFF},
	{0x34, 0x45, 0x93, 0xFF},
	{0x64, 0x73, 0xFF, 0xFF},
	{0x00, 0x18, 0xEC, 0xFF},
	{0x84, 0x38, 0xFF, 0xFF},
	{0x52, 0x00, 0x85, 0xFF},
	{0xCB, 0x38, 0xFF, 0xFF},
	{0xFF, 0x95, 0xC8, 0xFF},
	{0xFF, 0x37, 0xC7, 0xFF},
}

// ClassColor returns the palette color for a class index, wrapping
// around for models with more classes than palette entries.
func ClassColor(class int) color.RGBA {
	if class < 0 {
		class = -class
	}
	return Palette[class%len(Palette)]
}

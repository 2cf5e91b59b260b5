// Package inference - Input preparation.
package inference

import (
	"image"

	"github.com/nfnt/resize"
)

// PrepareInput converts a frame into the planar RGB float32 layout YOLO
// models expect: the image resized to width x height (stretched, no
// letterboxing, matching how detections are later mapped back), values
// scaled to [0,1], laid out as all red values, then green, then blue.
//
// Arguments:
//   - img: The source frame.
//   - width, height: The model input dimensions.
//
// Returns:
//   - []float32: 3*height*width values ready for Session.Run.
func PrepareInput(img image.Image, width, height int) []float32 {
	channelSize := width * height
	data := make([]float32, 3*channelSize)
	red := data[0:channelSize]
	green := data[channelSize : 2*channelSize]
	blue := data[2*channelSize : 3*channelSize]

	resized := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return data
}

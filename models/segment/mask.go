// Package segment - Prototype-based mask assembly.
package segment

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/edgekit/go-yolo/images"
	"github.com/edgekit/go-yolo/models/postprocess"
)

// DefaultMaskThreshold binarizes assembled mask values for the combined
// visualization mask.
const DefaultMaskThreshold = 0.5

// Prototype is the shared low-resolution feature map combined with
// per-detection coefficients to reconstruct full masks. Layout is
// [H, W, Channels], channel-minor.
type Prototype struct {
	H, W, Channels int

	data []float32
}

// NewPrototype validates a dense tensor as a [maskH, maskW, channels]
// prototype (leading batch dimensions of size 1 are tolerated).
func NewPrototype(t *tensor.Dense) (*Prototype, error) {
	if t == nil {
		return nil, errors.Wrap(postprocess.ErrMissingPrototype, "nil prototype tensor")
	}
	shape := t.Shape()
	for len(shape) > 3 && shape[0] == 1 {
		shape = shape[1:]
	}
	if len(shape) != 3 {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch, "prototype: want [maskH, maskW, channels], got %v", t.Shape())
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch, "prototype: tensor holds %T, want []float32", t.Data())
	}
	return &Prototype{H: shape[0], W: shape[1], Channels: shape[2], data: data}, nil
}

// At returns the prototype value at (y, x) for channel c.
func (p *Prototype) At(y, x, c int) float32 {
	return p.data[(y*p.W+x)*p.Channels+c]
}

// Masks is the assembled mask output for one frame.
type Masks struct {
	// Probability holds one raw, unthresholded [H][W] grid per
	// detection, in detection order.
	Probability [][][]float32
	// Combined is one packed image where each pixel carries the class
	// color of the last detection (in iteration order) whose mask value
	// exceeds the threshold at that pixel.
	Combined *image.RGBA
	// Width and Height are the prototype/mask dimensions.
	Width, Height int
}

// AssembleMasks reconstructs per-detection masks from coefficients and
// the shared prototype.
//
// Each mask value is a per-pixel dot product over prototype channels:
//
//	mask[y][x] = Σ_c coeffs[c] * proto[y][x][c]
//
// There is no spatial convolution. The combined mask binarizes at the
// threshold and colors each pixel by detection class; later detections
// override earlier ones at overlapping pixels (last writer wins), which
// downstream renderers rely on for reproducible output.
//
// Arguments:
//   - detections: Surviving candidates carrying mask coefficients.
//   - proto: The shared prototype tensor.
//   - threshold: Binarization threshold for the combined mask.
//
// Returns:
//   - *Masks with one probability grid per detection, or nil (and nil
//     error) when the detection list is empty.
//   - ErrShapeMismatch when a coefficient vector's length differs from
//     the prototype channel count.
func AssembleMasks(detections []postprocess.Candidate, proto *Prototype, threshold float32) (*Masks, error) {
	if len(detections) == 0 {
		return nil, nil
	}
	if proto == nil {
		return nil, errors.Wrap(postprocess.ErrMissingPrototype, "assemble masks")
	}

	out := &Masks{
		Probability: make([][][]float32, len(detections)),
		Combined:    image.NewRGBA(image.Rect(0, 0, proto.W, proto.H)),
		Width:       proto.W,
		Height:      proto.H,
	}

	for di, det := range detections {
		if len(det.MaskCoeffs) != proto.Channels {
			return nil, errors.Wrapf(postprocess.ErrShapeMismatch,
				"detection %d has %d mask coefficients, prototype has %d channels",
				di, len(det.MaskCoeffs), proto.Channels)
		}

		color := images.ClassColor(det.Class)
		grid := make([][]float32, proto.H)
		for y := 0; y < proto.H; y++ {
			row := make([]float32, proto.W)
			for x := 0; x < proto.W; x++ {
				var sum float32
				for c := 0; c < proto.Channels; c++ {
					sum += det.MaskCoeffs[c] * proto.At(y, x, c)
				}
				row[x] = sum
				if sum > threshold {
					out.Combined.SetRGBA(x, y, color)
				}
			}
			grid[y] = row
		}
		out.Probability[di] = grid
	}
	return out, nil
}

// ScaleToFrame upscales the combined mask to the original frame size.
// Nearest-neighbor keeps class colors intact instead of blending them.
func (m *Masks) ScaleToFrame(width, height int) image.Image {
	if m == nil || m.Combined == nil {
		return nil
	}
	return resize.Resize(uint(width), uint(height), m.Combined, resize.NearestNeighbor)
}

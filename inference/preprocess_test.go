package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInput_PlanarLayout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 128, B: 0, A: 255})
		}
	}

	data := PrepareInput(img, 4, 4)
	require.Len(t, data, 3*4*4)

	// Uniform image survives resizing untouched; channels stay planar.
	for i := 0; i < 16; i++ {
		assert.InDelta(t, 1.0, data[i], 1e-3)
		assert.InDelta(t, 128.0/255.0, data[16+i], 1e-2)
		assert.InDelta(t, 0.0, data[32+i], 1e-3)
	}
}

func TestPrepareInput_Resizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	data := PrepareInput(img, 8, 8)
	assert.Len(t, data, 3*8*8)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{ModelPath: "model.onnx"}
	cfg.applyDefaults()
	assert.Equal(t, "images", cfg.InputName)
	assert.Equal(t, []string{"output0"}, cfg.OutputNames)
	assert.Equal(t, 640, cfg.InputWidth)
	assert.Equal(t, 640, cfg.InputHeight)
	assert.Equal(t, BackendCPU, cfg.Backend)
}

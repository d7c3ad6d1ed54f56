package internal

import (
	"image/color"
	"testing"
)

func TestColorToHSVPureGreenFallsInGreenBand(t *testing.T) {
	h, s, v := colorToHSV(color.RGBA{R: 0, G: 255, B: 0, A: 255})
	if h < 35 || h > 85 {
		t.Fatalf("hue for pure green = %v, want within [35,85]", h)
	}
	if s < 30 {
		t.Fatalf("saturation for pure green = %v, want >= 30", s)
	}
	if v < 20 {
		t.Fatalf("value for pure green = %v, want >= 20", v)
	}
}

func TestColorToHSVBlackIsZeroValue(t *testing.T) {
	_, s, v := colorToHSV(color.RGBA{R: 0, G: 0, B: 0, A: 255})
	if v != 0 {
		t.Fatalf("value for black = %v, want 0", v)
	}
	if s != 0 {
		t.Fatalf("saturation for black = %v, want 0", s)
	}
}

func TestComputeGreenRatioAllGreenFrame(t *testing.T) {
	// Y=150, U=44, V=21 decode to approximately pure green (0,255,0)
	// under the inverse BT.601 transform used by yuvToRGB.
	f := VideoFrame{
		Width:  2,
		Height: 2,
		Y:      []byte{150, 150, 150, 150},
		U:      []byte{44},
		V:      []byte{21},
	}
	if ratio := computeGreenRatio(f); ratio != 1.0 {
		t.Fatalf("computeGreenRatio(all-green) = %v, want 1.0", ratio)
	}
}

func TestComputeGreenRatioAllRedFrame(t *testing.T) {
	// Y=76, U=85, V=255 decode to approximately pure red (255,0,0).
	f := VideoFrame{
		Width:  2,
		Height: 2,
		Y:      []byte{76, 76, 76, 76},
		U:      []byte{85},
		V:      []byte{255},
	}
	if ratio := computeGreenRatio(f); ratio != 0.0 {
		t.Fatalf("computeGreenRatio(all-red) = %v, want 0.0", ratio)
	}
}

func TestComputeGreenRatioEmptyFrame(t *testing.T) {
	if ratio := computeGreenRatio(VideoFrame{}); ratio != 0 {
		t.Fatalf("computeGreenRatio(empty) = %v, want 0", ratio)
	}
}

func TestComputeMosaicRatioUniformFrameIsFullyLowVariance(t *testing.T) {
	y := make([]byte, mosaicBlockSize*mosaicBlockSize)
	for i := range y {
		y[i] = 128
	}
	f := VideoFrame{Width: mosaicBlockSize, Height: mosaicBlockSize, Y: y}
	if ratio := computeMosaicRatio(f); ratio != 1.0 {
		t.Fatalf("computeMosaicRatio(uniform) = %v, want 1.0", ratio)
	}
}

func TestComputeMosaicRatioCheckerboardIsHighVariance(t *testing.T) {
	y := make([]byte, mosaicBlockSize*mosaicBlockSize)
	for i := range y {
		if i%2 == 0 {
			y[i] = 0
		} else {
			y[i] = 255
		}
	}
	f := VideoFrame{Width: mosaicBlockSize, Height: mosaicBlockSize, Y: y}
	if ratio := computeMosaicRatio(f); ratio != 0.0 {
		t.Fatalf("computeMosaicRatio(checkerboard) = %v, want 0.0", ratio)
	}
}

func TestComputeMosaicRatioEmptyFrame(t *testing.T) {
	if ratio := computeMosaicRatio(VideoFrame{}); ratio != 0 {
		t.Fatalf("computeMosaicRatio(empty) = %v, want 0", ratio)
	}
}

func TestMeanFrameRate(t *testing.T) {
	buffer := []VideoFrame{
		{PTS: 0, TimeBase: 1.0 / 30.0},
		{PTS: 1, TimeBase: 1.0 / 30.0},
		{PTS: 2, TimeBase: 1.0 / 30.0},
	}
	if fps := meanFrameRate(buffer); fps != 30.0 {
		t.Fatalf("meanFrameRate = %v, want 30.0", fps)
	}
}

func TestMeanFrameRateSingleFrame(t *testing.T) {
	if fps := meanFrameRate([]VideoFrame{{PTS: 0, TimeBase: 1.0 / 30.0}}); fps != 0 {
		t.Fatalf("meanFrameRate(single frame) = %v, want 0", fps)
	}
}

package internal

import (
	"fmt"
	"image/color"
	"log"
	"time"
)

const (
	videoFlushInterval = 450 * time.Millisecond
	mosaicBlockSize    = 128
	mosaicVarThreshold = 400.0
)

// VideoAnalyzer buffers decoded video frames and periodically computes
// resolution, bitrate, frame rate, green-ratio and mosaic-ratio over
// the buffer.
type VideoAnalyzer struct {
	in     *DroppingQueue[VideoFrame]
	info   *StreamInfo
	writer *SubtitleWriter
	store  *ReportStore

	buffer          []VideoFrame
	origin          time.Time // arrival of the first frame ever ingested
	lastFlushOffset float64
}

// NewVideoAnalyzer subscribes in to the Stream Ingestor's video fan-out.
func NewVideoAnalyzer(in *DroppingQueue[VideoFrame], info *StreamInfo, writer *SubtitleWriter, store *ReportStore) *VideoAnalyzer {
	return &VideoAnalyzer{in: in, info: info, writer: writer, store: store}
}

// Run blocks processing frames until stop returns true.
func (v *VideoAnalyzer) Run(stop func() bool) {
	v.info.WaitUntilStarted(stop)

	for {
		if stop() {
			return
		}
		select {
		case frame, ok := <-v.in.C():
			if !ok {
				return
			}
			v.ingest(frame)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (v *VideoAnalyzer) ingest(frame VideoFrame) {
	v.buffer = append(v.buffer, frame)
	Heartbeat("video_analyzer")

	if v.origin.IsZero() {
		v.origin = frame.Arrival
	}
	offset := frame.Arrival.Sub(v.origin).Seconds()
	if offset-v.lastFlushOffset > videoFlushInterval.Seconds() && len(v.buffer) >= 2 {
		batch := v.buffer
		v.buffer = nil
		v.lastFlushOffset = offset
		v.analyze(batch)
	}
}

func (v *VideoAnalyzer) analyze(buffer []VideoFrame) {
	start := time.Now()
	defer MeasureOperation("video_analyzer", start)

	first, last := buffer[0], buffer[len(buffer)-1]
	duration := last.Arrival.Sub(first.Arrival).Seconds()
	if duration <= 0 {
		duration = float64(len(buffer)) / 30.0
	}

	var totalBits float64
	for _, f := range buffer {
		frameBytes := float64(f.Width*f.Height + 2*(f.Width/2)*(f.Height/2))
		totalBits += frameBytes / 8
	}
	bitrateMbps := totalBits / duration / 1e6

	fps := meanFrameRate(buffer)
	greenRatio := computeGreenRatio(last)
	mosaicRatio := computeMosaicRatio(last)

	line := fmt.Sprintf("Resolution:(%d, %d), Bitrate: %.2f mbps, Frame Rate: %.2f fps, Mosaic Ratio: %.2f %%, Green Ratio: %.2f %%",
		last.Width, last.Height, bitrateMbps, fps, mosaicRatio*100, greenRatio*100)

	if v.writer != nil {
		if err := v.writer.AppendBlock("Video-Status.srt", first.PTS, last.PTS, v.info.VideoClockRate, line); err != nil {
			log.Printf("video_analyzer: subtitle write error: %v", err)
		}
	}

	SetVideoBitrate(bitrateMbps)
	SetVideoFPS(fps)
	SetVideoGreenRatio(greenRatio)
	SetVideoMosaicRatio(mosaicRatio)

	if v.store != nil {
		if err := v.store.InsertVideoReport(bitrateMbps, fps, greenRatio, mosaicRatio); err != nil {
			log.Printf("video_analyzer: mysql insert error: %v", err)
		}
	}
}

func meanFrameRate(buffer []VideoFrame) float64 {
	if len(buffer) < 2 {
		return 0
	}
	var sum float64
	count := 0
	for i := 1; i < len(buffer); i++ {
		prev, curr := buffer[i-1], buffer[i]
		deltaPTS := float64(curr.PTS - prev.PTS)
		if deltaPTS <= 0 || curr.TimeBase <= 0 {
			continue
		}
		sum += 1.0 / (curr.TimeBase * deltaPTS)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// computeGreenRatio converts the frame's planar YUV to HSV per pixel
// and masks the green band.
func computeGreenRatio(f VideoFrame) float64 {
	if f.Width == 0 || f.Height == 0 || len(f.Y) == 0 {
		return 0
	}

	total := f.Width * f.Height
	masked := 0

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := yuvToRGB(f, x, y)
			h, s, val := colorToHSV(color.RGBA{R: r, G: g, B: b, A: 255})
			if h >= 35 && h <= 85 && s >= 30 && s <= 255 && val >= 20 && val <= 255 {
				masked++
			}
		}
	}

	return float64(masked) / float64(total)
}

func yuvToRGB(f VideoFrame, x, y int) (r, g, b byte) {
	yIdx := y*f.Width + x
	if yIdx >= len(f.Y) {
		return 0, 0, 0
	}
	cx, cy := x/2, y/2
	cStride := f.Width / 2
	cIdx := cy*cStride + cx

	Y := float64(f.Y[yIdx])
	U, V := 128.0, 128.0
	if cIdx < len(f.U) {
		U = float64(f.U[cIdx])
	}
	if cIdx < len(f.V) {
		V = float64(f.V[cIdx])
	}

	cr, cb := V-128, U-128
	rf := Y + 1.402*cr
	gf := Y - 0.344136*cb - 0.714136*cr
	bf := Y + 1.772*cb

	return clampByte(rf), clampByte(gf), clampByte(bf)
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// colorToHSV converts 8-bit RGB to HSV with H in [0,180], S and V in
// [0,255], matching the OpenCV-style HSV range used by computeGreenRatio's
// threshold bounds.
func colorToHSV(c color.RGBA) (h, s, v float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	max := maxf(r, g, b)
	min := minf(r, g, b)
	delta := max - min

	v = max * 255

	if max == 0 {
		return 0, 0, v
	}
	s = (delta / max) * 255

	switch {
	case delta == 0:
		h = 0
	case max == r:
		h = 60 * (((g - b) / delta))
	case max == g:
		h = 60 * (((b - r) / delta) + 2)
	default:
		h = 60 * (((r - g) / delta) + 4)
	}
	if h < 0 {
		h += 360
	}
	h /= 2 // OpenCV convention: H in [0,180]
	return h, s, v
}

func maxf(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minf(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// computeMosaicRatio grayscales the frame (Y plane is already
// luminance), box-blurs it with a 3x3 kernel, tiles into 128x128
// blocks and counts low-variance blocks.
func computeMosaicRatio(f VideoFrame) float64 {
	if f.Width == 0 || f.Height == 0 || len(f.Y) == 0 {
		return 0
	}

	gray := boxBlur3x3(f.Y, f.Width, f.Height)

	blocksX := (f.Width + mosaicBlockSize - 1) / mosaicBlockSize
	blocksY := (f.Height + mosaicBlockSize - 1) / mosaicBlockSize
	totalBlocks := blocksX * blocksY
	if totalBlocks == 0 {
		return 0
	}

	lowVarBlocks := 0
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			x0, y0 := bx*mosaicBlockSize, by*mosaicBlockSize
			x1 := minInt(x0+mosaicBlockSize, f.Width)
			y1 := minInt(y0+mosaicBlockSize, f.Height)
			if blockVariance(gray, f.Width, x0, y0, x1, y1) < mosaicVarThreshold {
				lowVarBlocks++
			}
		}
	}

	return float64(lowVarBlocks) / float64(totalBlocks)
}

func boxBlur3x3(src []byte, width, height int) []byte {
	out := make([]byte, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, count := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					sum += int(src[ny*width+nx])
					count++
				}
			}
			out[y*width+x] = byte(sum / count)
		}
	}
	return out
}

func blockVariance(data []byte, stride, x0, y0, x1, y1 int) float64 {
	n := 0
	var sum, sumSq float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := float64(data[y*stride+x])
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

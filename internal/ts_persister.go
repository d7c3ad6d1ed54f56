package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
)

// TSPersister is a thin wrapper over mediacommon's MPEG-TS muxer,
// writing the decoded H.264 stream to results/output_stream.ts. Spec
// §1 calls this an external collaborator; re-implementing TS muxing is
// out of scope, this file only wires the Stream Ingestor's decoded
// frames into it. WriteAudio is provided for a source that negotiates
// MPEG-4 Audio, but this probe's Audio Decoder only implements the two
// static G.711 payload types, which
// MPEG-TS has no standard elementary stream type for; the Stream
// Ingestor therefore never calls WriteAudio today (see DESIGN.md).
type TSPersister struct {
	mu     sync.Mutex
	file   *os.File
	bw     *bufio.Writer
	writer *mpegts.Writer

	videoTrack *mpegts.Track
	audioTrack *mpegts.Track
}

// NewTSPersister opens results/output_stream.ts and configures tracks
// for the kinds present in info.
func NewTSPersister(info *StreamInfo) (*TSPersister, error) {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, NewError(err, ErrCodeIO, "TSPersister", "MkdirAll")
	}

	f, err := os.Create(filepath.Join(resultsDir, "output_stream.ts"))
	if err != nil {
		return nil, NewError(err, ErrCodeIO, "TSPersister", "Create")
	}

	p := &TSPersister{file: f, bw: bufio.NewWriterSize(f, 188*64)}

	var tracks []*mpegts.Track
	if info.HasVideo {
		p.videoTrack = &mpegts.Track{Codec: &mpegts.CodecH264{}}
		tracks = append(tracks, p.videoTrack)
	}
	if info.HasAudio {
		p.audioTrack = &mpegts.Track{Codec: &mpegts.CodecMPEG4Audio{}}
		tracks = append(tracks, p.audioTrack)
	}

	p.writer = mpegts.NewWriter(p.bw, tracks)
	return p, nil
}

// WriteVideo muxes one access unit (a set of Annex-B NAL units) at the
// given PTS/DTS (90kHz units), guarded by the mutex shared with
// WriteAudio (a plain, non-reentrant sync.Mutex).
func (p *TSPersister) WriteVideo(pts, dts int64, randomAccess bool, nalus [][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.videoTrack == nil {
		return nil
	}
	if err := p.writer.WriteH26x(p.videoTrack, pts, dts, randomAccess, nalus); err != nil {
		return NewError(err, ErrCodeCodec, "TSPersister", "WriteVideo")
	}
	return nil
}

// WriteAudio muxes one AAC access unit at the given PTS (source clock
// rate units).
func (p *TSPersister) WriteAudio(pts int64, aus [][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.audioTrack == nil {
		return nil
	}
	if err := p.writer.WriteMPEG4Audio(p.audioTrack, pts, aus); err != nil {
		return NewError(err, ErrCodeCodec, "TSPersister", "WriteAudio")
	}
	return nil
}

// Close flushes and closes the output file so it is playable.
func (p *TSPersister) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.bw.Flush(); err != nil {
		return NewError(err, ErrCodeIO, "TSPersister", "Flush")
	}
	return p.file.Close()
}

// isIDR reports whether any NAL in the access unit is an IDR slice,
// used by the Stream Ingestor to set the random-access flag.
func isIDR(nalus [][]byte) bool {
	for _, nal := range nalus {
		if len(nal) == 0 {
			continue
		}
		if h264.NALUType(nal[0]&0x1F) == h264.NALUTypeIDR {
			return true
		}
	}
	return false
}

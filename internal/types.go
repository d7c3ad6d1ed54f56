package internal

import (
	"sync"
	"sync/atomic"
	"time"
)

// TrackKind identifies whether a track carries video or audio.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// TrackInit holds the per-track metadata learned from the RTSP control
// channel. A TrackInit is only delivered to the Net Analyzer once all
// six fields have been observed (see HasAll).
type TrackInit struct {
	TrackID        int
	Kind           TrackKind
	ClockRate      uint32
	SSRC           uint32
	InitSeq        uint16
	InitTimestamp  uint32
	haveTrackID    bool
	haveKind       bool
	haveClockRate  bool
	haveSSRC       bool
	haveInitSeq    bool
	haveInitTS     bool
}

// HasAll reports whether every field of the TrackInit has been observed.
func (t *TrackInit) HasAll() bool {
	return t.haveTrackID && t.haveKind && t.haveClockRate &&
		t.haveSSRC && t.haveInitSeq && t.haveInitTS
}

func (t *TrackInit) SetTrackID(id int) { t.TrackID = id; t.haveTrackID = true }
func (t *TrackInit) SetKind(k TrackKind) { t.Kind = k; t.haveKind = true }
func (t *TrackInit) SetClockRate(r uint32) { t.ClockRate = r; t.haveClockRate = true }
func (t *TrackInit) SetSSRC(s uint32) { t.SSRC = s; t.haveSSRC = true }
func (t *TrackInit) SetInitSeq(s uint16) { t.InitSeq = s; t.haveInitSeq = true }
func (t *TrackInit) SetInitTimestamp(ts uint32) { t.InitTimestamp = ts; t.haveInitTS = true }

// Clone returns a copy of the TrackInit, used when handing a completed
// record off to the Net Analyzer's control channel.
func (t *TrackInit) Clone() TrackInit {
	return *t
}

// RTPHeaderRecord is extracted from the first 12 bytes of an RTP-over-TCP
// payload. Version must equal 2 or the record is discarded upstream.
type RTPHeaderRecord struct {
	PayloadType      uint8
	Sequence         uint16
	Timestamp        uint32
	SSRC             uint32
	ArrivalMonotonic float64
}

// acceptedPayloadTypes is the RTP payload type set the Net Analyzer
// will accept; anything else is dropped as an unrecognized codec.
var acceptedPayloadTypes = map[uint8]bool{
	0:  true, // PCMU
	8:  true, // PCMA
	96: true,
	97: true,
	98: true,
}

// VideoFrame is a decoded planar YUV420P video frame.
type VideoFrame struct {
	PTS       int64
	TimeBase  float64 // seconds per tick
	PictType  byte
	Width     int
	Height    int
	Y, U, V   []byte
	Arrival   time.Time
}

// AudioFrame is a decoded interleaved-PCM audio frame.
type AudioFrame struct {
	PTS           int64
	TimeBase      float64
	SampleRate    int
	ChannelLayout string
	Samples       []int16
	Arrival       time.Time
}

// StreamInfoStatus is the lifecycle state of the shared Stream-info record.
type StreamInfoStatus int32

const (
	StreamUninitialized StreamInfoStatus = iota
	StreamStart
	StreamEnd
)

// StreamInfo is written once by the Stream Ingestor on startup and then
// treated as immutable by every analyzer. Status transitions are the
// only mutation after construction.
type StreamInfo struct {
	status         atomic.Int32
	HasVideo       bool
	HasAudio       bool
	VideoClockRate uint32
	AudioClockRate uint32
	VideoWidth     int
	VideoHeight    int
}

func (s *StreamInfo) Status() StreamInfoStatus {
	return StreamInfoStatus(s.status.Load())
}

func (s *StreamInfo) SetStatus(v StreamInfoStatus) {
	s.status.Store(int32(v))
}

// WaitUntilStarted spin-waits (with a short sleep) until status leaves
// StreamUninitialized, or stopped reports true.
func (s *StreamInfo) WaitUntilStarted(stopped func() bool) StreamInfoStatus {
	for s.Status() == StreamUninitialized {
		if stopped() {
			return s.Status()
		}
		time.Sleep(20 * time.Millisecond)
	}
	return s.Status()
}

// LatestRTT is the single mutable shared datum in the system: the most
// recently measured round-trip time in seconds, guarded by a mutex.
type LatestRTT struct {
	mu        sync.Mutex
	seconds   float64
	available bool
}

func (l *LatestRTT) Set(seconds float64) {
	l.mu.Lock()
	l.seconds = seconds
	l.available = true
	l.mu.Unlock()
}

// SnapshotMillis returns the latest RTT in milliseconds, or the
// "unknown" sentinel 999.99 if no measurement has ever landed.
func (l *LatestRTT) SnapshotMillis() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.available {
		return 999.99
	}
	return l.seconds * 1000.0
}

// NetAccumulator is the per-track, per-SSRC network metric state owned
// exclusively by its Net Analyzer sub-task.
type NetAccumulator struct {
	PrevSeq           uint16
	PrevTimestamp     uint32
	PrevArrival       float64
	JitterSamples     []float64
	WindowLoss        uint64
	WindowRecv        uint64
	TotalLoss         uint64
	TotalRecv         uint64
	PTSWrapCount      uint64
	PreviousReportPTS int64
}

// AudioAccumulator is the per-track audio metric state owned
// exclusively by its Audio Analyzer.
type AudioAccumulator struct {
	AvgVoice    float64
	HaveVoice   bool
	MaxVoice    float64
	AvgNoise    float64
	HaveNoise   bool
	MaxNoise    float64
	LastPTS     int64
	HaveLastPTS bool
}

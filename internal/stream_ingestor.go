package internal

import (
	"fmt"
	"log"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
	"github.com/pion/rtp"

	"streamprobe/internal/codec"
)

const (
	ingestorSocketTimeout = 10 * time.Second
	ingestorMaxRetries    = 5
	ingestorRetryBackoff  = 3 * time.Second
)

// StreamIngestor opens an RTSP session against the Forwarder's local
// endpoint, decodes video and audio, and fans each frame out to every
// interested subscriber queue without blocking on slow consumers.
type StreamIngestor struct {
	path string
	info *StreamInfo

	client *gortsplib.Client

	videoSubscribers []*DroppingQueue[VideoFrame]
	audioSubscribers []*DroppingQueue[AudioFrame]

	videoDecoder *codec.H264Decoder
	audioDecoder *codec.G711Decoder
	audioPT      uint8

	persister atomic.Pointer[TSPersister]
}

// SetPersister wires an optional TS Persister; once set, every decoded
// video packet is also muxed into results/output_stream.ts. Audio is
// not muxed.
// Safe to call concurrently with RTP callback delivery.
func (s *StreamIngestor) SetPersister(p *TSPersister) {
	s.persister.Store(p)
}

// NewStreamIngestor targets 127.0.0.1:12024/<path>, the Forwarder's
// local listener, and shares the given Stream-info record.
func NewStreamIngestor(path string, info *StreamInfo) *StreamIngestor {
	return &StreamIngestor{
		path:         path,
		info:         info,
		videoDecoder: codec.NewH264Decoder(),
		audioDecoder: codec.NewG711Decoder(),
	}
}

// SubscribeVideo registers a consumer queue for decoded video frames.
func (s *StreamIngestor) SubscribeVideo(q *DroppingQueue[VideoFrame]) {
	s.videoSubscribers = append(s.videoSubscribers, q)
}

// SubscribeAudio registers a consumer queue for decoded audio frames.
func (s *StreamIngestor) SubscribeAudio(q *DroppingQueue[AudioFrame]) {
	s.audioSubscribers = append(s.audioSubscribers, q)
}

// Run opens the session (retrying on failure), publishes the
// Stream-info record, starts playback, and then blocks until stop
// returns true. The end of the upstream stream is not detected here:
// Run does not return or set StreamEnd on its own when the session
// stops delivering packets.
func (s *StreamIngestor) Run(stop func() bool) error {
	u, err := url.Parse(fmt.Sprintf("rtsp://127.0.0.1:12024/%s", s.path))
	if err != nil {
		return NewError(err, ErrCodeConfig, "StreamIngestor", "ParseURL")
	}

	var desc *description.Session
	for attempt := 1; attempt <= ingestorMaxRetries; attempt++ {
		if stop() {
			return nil
		}

		s.client = &gortsplib.Client{
			ReadTimeout:  ingestorSocketTimeout,
			WriteTimeout: ingestorSocketTimeout,
		}

		if err := s.client.Start(u.Scheme, u.Host); err != nil {
			log.Printf("stream_ingestor: connect attempt %d/%d failed: %v", attempt, ingestorMaxRetries, err)
			time.Sleep(ingestorRetryBackoff)
			continue
		}

		d, _, err := s.client.Describe(u)
		if err != nil {
			log.Printf("stream_ingestor: describe attempt %d/%d failed: %v", attempt, ingestorMaxRetries, err)
			s.client.Close()
			time.Sleep(ingestorRetryBackoff)
			continue
		}
		desc = d
		break
	}

	if desc == nil {
		return NewError(fmt.Errorf("exhausted %d retries", ingestorMaxRetries), ErrCodeUpstream, "StreamIngestor", "Describe")
	}
	defer s.client.Close()

	if err := s.setupTracks(desc); err != nil {
		return err
	}

	s.info.SetStatus(StreamStart)

	if _, err := s.client.Play(nil); err != nil {
		return NewError(err, ErrCodeUpstream, "StreamIngestor", "Play")
	}

	for {
		if stop() {
			s.info.SetStatus(StreamEnd)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (s *StreamIngestor) setupTracks(desc *description.Session) error {
	for _, media := range desc.Medias {
		switch media.Type {
		case description.MediaTypeVideo:
			h264Format, ok := findFormat[*format.H264](media)
			if !ok {
				continue
			}
			if _, err := s.client.Setup(desc.BaseURL, media, 0, 0); err != nil {
				return NewError(err, ErrCodeUpstream, "StreamIngestor", "SetupVideo")
			}
			s.info.HasVideo = true
			s.info.VideoClockRate = uint32(h264Format.ClockRate())
			s.client.OnPacketRTP(media, h264Format, s.onVideoPacket)

		case description.MediaTypeAudio:
			if _, err := s.client.Setup(desc.BaseURL, media, 0, 0); err != nil {
				return NewError(err, ErrCodeUpstream, "StreamIngestor", "SetupAudio")
			}
			audioFormat := media.Formats[0]
			s.info.HasAudio = true
			s.info.AudioClockRate = uint32(audioFormat.ClockRate())
			s.audioPT = uint8(audioFormat.PayloadType())
			s.client.OnPacketRTP(media, audioFormat, s.onAudioPacket)
		}
	}
	return nil
}

func findFormat[T format.Format](media *description.Media) (T, bool) {
	var zero T
	for _, f := range media.Formats {
		if typed, ok := f.(T); ok {
			return typed, true
		}
	}
	return zero, false
}

func (s *StreamIngestor) onVideoPacket(pkt *rtp.Packet) {
	s.videoDecoder.Feed(pkt.Payload)

	frame, err := s.videoDecoder.Decode([][]byte{pkt.Payload})
	if err != nil {
		return // partial access unit or SPS not yet seen; transient, swallowed
	}

	vf := VideoFrame{
		PTS:      int64(pkt.Timestamp),
		TimeBase: 1.0 / float64(s.info.VideoClockRate),
		PictType: frame.PictType,
		Width:    frame.Width,
		Height:   frame.Height,
		Y:        frame.Y,
		U:        frame.U,
		V:        frame.V,
		Arrival:  time.Now(),
	}

	for _, q := range s.videoSubscribers {
		q.Push(vf)
	}

	if p := s.persister.Load(); p != nil {
		nalus := [][]byte{pkt.Payload}
		if err := p.WriteVideo(vf.PTS, vf.PTS, isIDR(nalus), nalus); err != nil {
			log.Printf("stream_ingestor: ts persist error: %v", err)
		}
	}

	Heartbeat("stream_ingestor")
}

func (s *StreamIngestor) onAudioPacket(pkt *rtp.Packet) {
	frame, err := s.audioDecoder.Decode(s.audioPT, pkt.Payload)
	if err != nil {
		return
	}

	af := AudioFrame{
		PTS:           int64(pkt.Timestamp),
		TimeBase:      1.0 / float64(s.info.AudioClockRate),
		SampleRate:    frame.SampleRate,
		ChannelLayout: "mono",
		Samples:       frame.Samples,
		Arrival:       time.Now(),
	}

	for _, q := range s.audioSubscribers {
		q.Push(af)
	}
	Heartbeat("stream_ingestor")
}

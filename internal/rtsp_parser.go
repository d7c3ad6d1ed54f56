package internal

import (
	"encoding/hex"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
)

// ParserState holds the two-slot TrackInit array the RTSP control
// stream progressively fills in, plus the kinds of the SDP m= sections
// in their SDP order. That order is recorded only; trackID is always
// taken from the a=control, Transport or RTP-Info text itself.
type ParserState struct {
	Tracks       [2]TrackInit
	sdpKindOrder []TrackKind // m= line order, index == sdp section order
}

// NewParserState returns a ParserState with both track slots zeroed.
func NewParserState() *ParserState {
	return &ParserState{}
}

var (
	statusLineRe  = regexp.MustCompile(`^RTSP/1\.0 (\d{3})`)
	contentTypeRe = regexp.MustCompile(`(?i)Content-Type:\s*application/sdp`)
	transportRe   = regexp.MustCompile(`interleaved=(\d)-(\d).*?ssrc=([0-9a-fA-F]+)`)
	rtpInfoEntry  = regexp.MustCompile(`trackID=(\d+);seq=(\d+);rtptime=(\d+)`)
	controlRe     = regexp.MustCompile(`trackID=(\d+)`)
)

// HandleMessage parses one RTSP response (status line + headers +
// optional SDP body, exactly as read off the wire by the Forwarder)
// and mutates the two-slot TrackInit array. Returns true only when the
// status line carries a code other than 200, meaning the caller should
// raise the stop signal. Whether the track slots are complete is not
// reported here; the Forwarder checks each slot's HasAll afterwards.
func (p *ParserState) HandleMessage(raw string) (stopSignal bool) {
	if m := statusLineRe.FindStringSubmatch(raw); m != nil {
		if m[1] != "200" {
			log.Printf("rtsp_parser: non-200 status %s, raising stop signal", m[1])
			return true
		}
	}

	if contentTypeRe.MatchString(raw) {
		p.parseSDPBody(raw)
	}

	if idx := strings.Index(raw, "Transport:"); idx >= 0 {
		p.parseTransportHeader(raw[idx:])
	}

	if idx := strings.Index(raw, "RTP-Info:"); idx >= 0 {
		p.parseRTPInfoHeader(raw[idx:])
	}

	return false
}

// parseSDPBody extracts the body after the blank-line separator and
// parses it with pion/sdp/v3, filling in kind/track_id/clock_rate for
// each m= section it can match to a control attribute.
func (p *ParserState) parseSDPBody(raw string) {
	bodyIdx := strings.Index(raw, "\r\n\r\n")
	if bodyIdx < 0 {
		bodyIdx = strings.Index(raw, "\n\n")
		if bodyIdx < 0 {
			return
		}
	}
	body := raw[bodyIdx:]
	body = strings.TrimLeft(body, "\r\n")

	var sd sdp.SessionDescription
	if err := sd.Unmarshal([]byte(body)); err != nil {
		log.Printf("rtsp_parser: SDP parse error: %v", err)
		return
	}

	p.sdpKindOrder = p.sdpKindOrder[:0]

	for _, media := range sd.MediaDescriptions {
		kind := TrackKind(media.MediaName.Media)
		if kind != TrackVideo && kind != TrackAudio {
			continue
		}
		p.sdpKindOrder = append(p.sdpKindOrder, kind)

		trackID := -1
		clockRate := uint32(0)

		for _, attr := range media.Attributes {
			switch attr.Key {
			case "control":
				if m := controlRe.FindStringSubmatch(attr.Value); m != nil {
					id, _ := strconv.Atoi(m[1])
					trackID = id
				}
			case "rtpmap":
				fields := strings.Fields(attr.Value)
				if len(fields) == 2 {
					parts := strings.Split(fields[1], "/")
					if len(parts) >= 2 {
						if rate, err := strconv.Atoi(parts[1]); err == nil {
							clockRate = uint32(rate)
						}
					}
				}
			}
		}

		if trackID < 0 || trackID > 1 {
			continue
		}
		p.Tracks[trackID].SetTrackID(trackID)
		p.Tracks[trackID].SetKind(kind)
		if clockRate > 0 {
			p.Tracks[trackID].SetClockRate(clockRate)
		}
	}
}

// parseTransportHeader extracts interleaved channel and ssrc;
// track_id = interleaved-channel-a / 2.
func (p *ParserState) parseTransportHeader(header string) {
	m := transportRe.FindStringSubmatch(header)
	if m == nil {
		return
	}
	chanA, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	trackID := chanA / 2
	if trackID < 0 || trackID > 1 {
		return
	}

	ssrcBytes, err := hex.DecodeString(padHex(m[3]))
	if err != nil || len(ssrcBytes) != 4 {
		return
	}
	ssrc := uint32(ssrcBytes[0])<<24 | uint32(ssrcBytes[1])<<16 | uint32(ssrcBytes[2])<<8 | uint32(ssrcBytes[3])
	p.Tracks[trackID].SetTrackID(trackID)
	p.Tracks[trackID].SetSSRC(ssrc)
}

func padHex(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}

// parseRTPInfoHeader extracts per-track init sequence/timestamp from a
// semicolon-separated RTP-Info header.
func (p *ParserState) parseRTPInfoHeader(header string) {
	matches := rtpInfoEntry.FindAllStringSubmatch(header, -1)
	for _, m := range matches {
		trackID, err := strconv.Atoi(m[1])
		if err != nil || trackID < 0 || trackID > 1 {
			continue
		}
		seq, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			continue
		}
		ts, err := strconv.ParseUint(m[3], 10, 32)
		if err != nil {
			continue
		}
		p.Tracks[trackID].SetTrackID(trackID)
		p.Tracks[trackID].SetInitSeq(uint16(seq))
		p.Tracks[trackID].SetInitTimestamp(uint32(ts))
	}
}

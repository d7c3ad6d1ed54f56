package internal

import (
	"fmt"
	"time"

	"github.com/pion/rtp"
)

// ParseRTPHeaderWindow parses the first 12 bytes of an RTP-over-TCP
// payload into an RTPHeaderRecord, using pion/rtp's real header
// unmarshal rather than hand-rolled bit twiddling. Only the header is
// needed here; the Net Analyzer never looks at payload bytes.
func ParseRTPHeaderWindow(window []byte, arrival time.Time) (RTPHeaderRecord, error) {
	if len(window) < RTPHeaderSize {
		return RTPHeaderRecord{}, fmt.Errorf("rtp header window too short: %d bytes", len(window))
	}

	var pkt rtp.Packet
	if err := pkt.Unmarshal(window); err != nil {
		return RTPHeaderRecord{}, NewError(err, ErrCodeMalformed, "RTPHeader", "Unmarshal")
	}

	if pkt.Version != 2 {
		return RTPHeaderRecord{}, fmt.Errorf("rtp version %d != 2", pkt.Version)
	}

	if !acceptedPayloadTypes[pkt.PayloadType] {
		return RTPHeaderRecord{}, fmt.Errorf("rtp payload type %d not in accepted set", pkt.PayloadType)
	}

	return RTPHeaderRecord{
		PayloadType:      pkt.PayloadType,
		Sequence:         pkt.SequenceNumber,
		Timestamp:        pkt.Timestamp,
		SSRC:             pkt.SSRC,
		ArrivalMonotonic: monotonicSeconds(arrival),
	}, nil
}

var processStart = time.Now()

// monotonicSeconds converts a time.Time to a process-relative monotonic
// offset in seconds, independent of wall-clock semantics.
func monotonicSeconds(t time.Time) float64 {
	return t.Sub(processStart).Seconds()
}

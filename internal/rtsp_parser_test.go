package internal

import "testing"

func TestHandleMessageNon200RaisesStopSignal(t *testing.T) {
	p := NewParserState()
	stop := p.HandleMessage("RTSP/1.0 454 Session Not Found\r\n\r\n")
	if !stop {
		t.Fatalf("expected a non-200 status line to raise the stop signal")
	}
}

func TestHandleMessage200DoesNotStop(t *testing.T) {
	p := NewParserState()
	stop := p.HandleMessage("RTSP/1.0 200 OK\r\nCSeq: 1\r\n\r\n")
	if stop {
		t.Fatalf("a 200 response should not raise the stop signal")
	}
}

func TestParseSDPBodyFillsTrackSlots(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\n" +
		"Content-Type: application/sdp\r\n" +
		"\r\n" +
		"v=0\r\n" +
		"o=- 0 0 IN IP4 127.0.0.1\r\n" +
		"s=stream\r\n" +
		"t=0 0\r\n" +
		"m=video 0 RTP/AVP 96\r\n" +
		"a=control:trackID=0\r\n" +
		"a=rtpmap:96 H264/90000\r\n" +
		"m=audio 0 RTP/AVP 0\r\n" +
		"a=control:trackID=1\r\n" +
		"a=rtpmap:0 PCMU/8000\r\n"

	p := NewParserState()
	p.HandleMessage(raw)

	if p.Tracks[0].Kind != TrackVideo || p.Tracks[0].ClockRate != 90000 {
		t.Fatalf("track 0 = %+v, want video/90000", p.Tracks[0])
	}
	if p.Tracks[1].Kind != TrackAudio || p.Tracks[1].ClockRate != 8000 {
		t.Fatalf("track 1 = %+v, want audio/8000", p.Tracks[1])
	}
}

func TestParseTransportHeaderDerivesTrackIDFromChannel(t *testing.T) {
	p := NewParserState()
	p.HandleMessage("RTSP/1.0 200 OK\r\nTransport: RTP/AVP/TCP;interleaved=2-3;ssrc=1A2B3C4D\r\n\r\n")

	if p.Tracks[1].SSRC != 0x1A2B3C4D {
		t.Fatalf("SSRC = %x, want 1a2b3c4d", p.Tracks[1].SSRC)
	}
	if p.Tracks[1].TrackID != 1 {
		t.Fatalf("TrackID = %d, want 1 (channel 2 / 2)", p.Tracks[1].TrackID)
	}
}

func TestParseRTPInfoHeaderFillsInitSeqAndTimestamp(t *testing.T) {
	p := NewParserState()
	p.HandleMessage("RTSP/1.0 200 OK\r\nRTP-Info: url=track0;trackID=0;seq=1000;rtptime=90000,url=track1;trackID=1;seq=2000;rtptime=8000\r\n\r\n")

	if p.Tracks[0].InitSeq != 1000 || p.Tracks[0].InitTimestamp != 90000 {
		t.Fatalf("track 0 = %+v, want seq=1000 ts=90000", p.Tracks[0])
	}
	if p.Tracks[1].InitSeq != 2000 || p.Tracks[1].InitTimestamp != 8000 {
		t.Fatalf("track 1 = %+v, want seq=2000 ts=8000", p.Tracks[1])
	}
}

package codec

import "testing"

func TestG711DecoderRejectsEmptyPayload(t *testing.T) {
	d := NewG711Decoder()
	if _, err := d.Decode(0, nil); err == nil {
		t.Fatalf("expected an error for an empty payload")
	}
}

func TestG711DecoderRejectsUnsupportedPayloadType(t *testing.T) {
	d := NewG711Decoder()
	if _, err := d.Decode(3, []byte{0x00}); err == nil {
		t.Fatalf("expected an error for a non-G.711 payload type")
	}
}

func TestG711DecoderPCMUProducesOneSamplePerByte(t *testing.T) {
	d := NewG711Decoder()
	payload := []byte{0xFF, 0x7F, 0x00, 0x80}
	frame, err := d.Decode(0, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.SampleRate != 8000 || frame.Channels != 1 {
		t.Fatalf("frame = %+v, want 8000Hz mono", frame)
	}
	if len(frame.Samples) != len(payload) {
		t.Fatalf("len(Samples) = %d, want %d", len(frame.Samples), len(payload))
	}
}

func TestG711DecoderPCMAProducesOneSamplePerByte(t *testing.T) {
	d := NewG711Decoder()
	payload := []byte{0x55, 0xD5, 0x2A, 0xAA}
	frame, err := d.Decode(8, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Samples) != len(payload) {
		t.Fatalf("len(Samples) = %d, want %d", len(frame.Samples), len(payload))
	}
}

// The high bit of a G.711 byte carries the sign; flipping only that bit
// must negate the decoded magnitude and leave it otherwise unchanged,
// for both the mu-law and A-law tables.
func TestDecodeMuLawSignBitFlipNegatesMagnitude(t *testing.T) {
	for _, b := range []byte{0x00, 0x12, 0x4F, 0x7F} {
		pos := decodeMuLaw([]byte{b})[0]
		neg := decodeMuLaw([]byte{b ^ 0x80})[0]
		if pos != -neg {
			t.Fatalf("decodeMuLaw(%#x)=%d, decodeMuLaw(%#x)=%d; want negatives of each other", b, pos, b^0x80, neg)
		}
	}
}

func TestDecodeALawSignBitFlipNegatesMagnitude(t *testing.T) {
	for _, b := range []byte{0x00, 0x12, 0x4F, 0x7F} {
		pos := decodeALaw([]byte{b})[0]
		neg := decodeALaw([]byte{b ^ 0x80})[0]
		if pos != -neg {
			t.Fatalf("decodeALaw(%#x)=%d, decodeALaw(%#x)=%d; want negatives of each other", b, pos, b^0x80, neg)
		}
	}
}

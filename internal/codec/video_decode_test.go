package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestH264DecoderDecodeBeforeSPSErrors(t *testing.T) {
	d := NewH264Decoder()
	_, err := d.Decode([][]byte{{0x01, 0x02}})
	assert.Error(t, err, "decoding before any SPS has been fed should fail")
}

func TestH264DecoderDecodeEmptyAccessUnitErrors(t *testing.T) {
	d := NewH264Decoder()
	d.width, d.height, d.haveSPS = 16, 16, true

	_, err := d.Decode(nil)
	assert.Error(t, err)
}

func TestH264DecoderFeedIgnoresNonSPSNALUs(t *testing.T) {
	d := NewH264Decoder()
	d.Feed([]byte{0x01, 0xAA, 0xBB}) // NALU type 1 = non-IDR slice, not SPS
	assert.False(t, d.haveSPS, "a non-SPS NALU should not set haveSPS")
}

func TestExpandPlaneRepeatsSourceBytes(t *testing.T) {
	out := expandPlane([]byte{1, 2, 3}, 7)
	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3, 1}, out)
}

func TestExpandPlaneEmptySourceYieldsZeroedPlane(t *testing.T) {
	out := expandPlane(nil, 4)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestH264DecoderDecodeClassifiesIDRAsIPicture(t *testing.T) {
	d := NewH264Decoder()
	d.width, d.height, d.haveSPS = 4, 4, true

	idrNAL := []byte{0x05, 0x11, 0x22, 0x33}
	frame, err := d.Decode([][]byte{idrNAL})
	require.NoError(t, err)
	assert.Equal(t, byte('I'), frame.PictType)
	assert.Equal(t, 4, frame.Width)
	assert.Equal(t, 4, frame.Height)
	assert.Len(t, frame.Y, 16)
	assert.Len(t, frame.U, 4)
	assert.Len(t, frame.V, 4)
}

func TestH264DecoderDecodeClassifiesNonIDRAsPPicture(t *testing.T) {
	d := NewH264Decoder()
	d.width, d.height, d.haveSPS = 4, 4, true

	nonIDRNAL := []byte{0x01, 0x11, 0x22, 0x33}
	frame, err := d.Decode([][]byte{nonIDRNAL})
	require.NoError(t, err)
	assert.Equal(t, byte('P'), frame.PictType)
}

package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeErrorFormatting(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewError(underlying, ErrCodeUpstream, "forwarder", "dial")

	assert.Equal(t, "[UPSTREAM_ERROR] dial in forwarder: connection refused", err.Error())
}

func TestProbeErrorWithContextAppendsParenthetical(t *testing.T) {
	err := NewError(nil, ErrCodeCodec, "audio_decoder", "decode").WithContext("payload type 99")

	assert.Equal(t, "[CODEC_ERROR] decode in audio_decoder (payload type 99)", err.Error())
}

func TestProbeErrorUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := NewError(underlying, ErrCodeIO, "ts_persister", "write")

	require.ErrorIs(t, err, underlying)
}

func TestProbeErrorIsMatchesByCode(t *testing.T) {
	a := NewError(errors.New("x"), ErrCodeMalformed, "rtsp_parser", "parse")
	b := &ProbeError{Code: ErrCodeMalformed}
	assert.ErrorIs(t, a, b, "two ProbeErrors with the same code should be Is-equal")

	c := &ProbeError{Code: ErrCodeForwarder}
	assert.NotErrorIs(t, a, c, "ProbeErrors with different codes should not be Is-equal")
}

func TestIsRecoverable(t *testing.T) {
	configErr := NewError(errors.New("x"), ErrCodeConfig, "config_loader", "load")
	assert.False(t, IsRecoverable(configErr), "a config error should not be recoverable")

	upstreamErr := NewError(errors.New("x"), ErrCodeUpstream, "forwarder", "dial")
	assert.True(t, IsRecoverable(upstreamErr), "an upstream error should be recoverable")

	assert.True(t, IsRecoverable(errors.New("plain error")), "a non-ProbeError should default to recoverable")
}

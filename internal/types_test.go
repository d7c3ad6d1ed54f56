package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackInitHasAllRequiresEveryField(t *testing.T) {
	var tr TrackInit
	assert.False(t, tr.HasAll(), "zero-value TrackInit should not report HasAll")

	tr.SetTrackID(0)
	tr.SetKind(TrackVideo)
	tr.SetClockRate(90000)
	tr.SetSSRC(12345)
	tr.SetInitSeq(1)
	assert.False(t, tr.HasAll(), "TrackInit missing InitTimestamp should not report HasAll")

	tr.SetInitTimestamp(1000)
	assert.True(t, tr.HasAll(), "TrackInit with all six fields set should report HasAll")
}

func TestTrackInitClone(t *testing.T) {
	var tr TrackInit
	tr.SetTrackID(1)
	tr.SetKind(TrackAudio)

	clone := tr.Clone()
	clone.SetClockRate(8000)

	assert.Zero(t, tr.ClockRate, "mutating the clone should not affect the original")
	assert.Equal(t, 1, clone.TrackID)
	assert.Equal(t, TrackAudio, clone.Kind)
}

func TestLatestRTTSnapshotMillisSentinelBeforeSet(t *testing.T) {
	var rtt LatestRTT
	assert.Equal(t, 999.99, rtt.SnapshotMillis())
}

func TestLatestRTTSnapshotMillisAfterSet(t *testing.T) {
	var rtt LatestRTT
	rtt.Set(0.025)
	assert.Equal(t, 25.0, rtt.SnapshotMillis())
}

func TestStreamInfoStatusTransitions(t *testing.T) {
	var info StreamInfo
	assert.Equal(t, StreamUninitialized, info.Status())

	info.SetStatus(StreamStart)
	assert.Equal(t, StreamStart, info.Status())

	stopped := func() bool { return true }
	assert.Equal(t, StreamStart, info.WaitUntilStarted(stopped))
}

func TestStreamInfoWaitUntilStartedRespectsStop(t *testing.T) {
	var info StreamInfo
	stopped := func() bool { return true }
	assert.Equal(t, StreamUninitialized, info.WaitUntilStarted(stopped))
}

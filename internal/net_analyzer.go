package internal

import (
	"fmt"
	"log"
	"time"
)

const netReportHalfWindowFraction = 0.5 // report every clock_rate/2 PTS units

// NetAnalyzer consumes the Forwarder's control and data channels,
// maintains one per-SSRC accumulator, and emits windowed network
// quality reports.
type NetAnalyzer struct {
	forwarder *Forwarder
	rtt       *LatestRTT
	writer    *SubtitleWriter
	cache     *ReportCache
	store     *ReportStore
	alertCfg  AlertSettings

	tracks map[uint32]*trackState
}

type trackState struct {
	init  TrackInit
	acc   NetAccumulator
	queue *DroppingQueue[RTPHeaderRecord]
}

// NewNetAnalyzer wires a Net Analyzer against a running Forwarder. The
// optional cache and store may be nil when their domain-stack
// collaborators are disabled.
func NewNetAnalyzer(fwd *Forwarder, rtt *LatestRTT, writer *SubtitleWriter, cache *ReportCache, store *ReportStore, alertCfg AlertSettings) *NetAnalyzer {
	return &NetAnalyzer{
		forwarder: fwd,
		rtt:       rtt,
		writer:    writer,
		cache:     cache,
		store:     store,
		alertCfg:  alertCfg,
		tracks:    make(map[uint32]*trackState),
	}
}

// Run blocks consuming control events until the start sentinel, then
// spawns one per-track sub-task and dispatches RTP header windows by
// SSRC until stop fires.
func (n *NetAnalyzer) Run(stop func() bool) {
	if !n.awaitTrackInits(stop) {
		return
	}

	for _, ts := range n.tracks {
		go n.runTrack(ts, stop)
	}

	for {
		if stop() {
			return
		}
		select {
		case window, ok := <-n.forwarder.DataOut.C():
			if !ok {
				return
			}
			n.dispatch(window)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (n *NetAnalyzer) awaitTrackInits(stop func() bool) bool {
	for {
		if stop() {
			return false
		}
		select {
		case ev, ok := <-n.forwarder.ControlOut.C():
			if !ok {
				return false
			}
			if ev.Start {
				return len(n.tracks) > 0
			}
			if ev.Init != nil {
				n.tracks[ev.Init.SSRC] = &trackState{
					init:  *ev.Init,
					queue: NewDroppingQueue[RTPHeaderRecord](512, fmt.Sprintf("net-track-%d", ev.Init.SSRC), "net_queue_full"),
					acc: NetAccumulator{
						PrevSeq:       ev.Init.InitSeq - 1,
						PrevTimestamp: ev.Init.InitTimestamp,
					},
				}
			}
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (n *NetAnalyzer) dispatch(window RTPWindow) {
	rec, err := ParseRTPHeaderWindow(window.Data, window.Arrival)
	if err != nil {
		if IsDebugLoggingEnabled() {
			log.Printf("net_analyzer: discarding window: %v", err)
		}
		return
	}

	ts, ok := n.tracks[rec.SSRC]
	if !ok {
		return
	}
	ts.queue.Push(rec)
}

func (n *NetAnalyzer) runTrack(ts *trackState, stop func() bool) {
	ts.acc.PrevArrival = monotonicSeconds(time.Now())

	for {
		if stop() {
			return
		}
		select {
		case rec, ok := <-ts.queue.C():
			if !ok {
				return
			}
			n.processPacket(ts, rec)
			Heartbeat("net_analyzer")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// processPacket implements the per-packet accounting algorithm of
// per-packet analysis steps.
func (n *NetAnalyzer) processPacket(ts *trackState, rec RTPHeaderRecord) {
	gap, accepted := sequenceGap(ts.acc.PrevSeq, rec.Sequence)
	if !accepted {
		return
	}

	ts.acc.WindowLoss += gap
	ts.acc.WindowRecv += 1 + gap
	ts.acc.TotalLoss += gap
	ts.acc.TotalRecv += 1 + gap

	ts.acc.JitterSamples = append(ts.acc.JitterSamples, rec.ArrivalMonotonic-ts.acc.PrevArrival)

	if timestampWrapped(ts.acc.PrevTimestamp, rec.Timestamp, ts.init.ClockRate) {
		ts.acc.PTSWrapCount++
	}
	currentPTS := int64(rec.Timestamp) - int64(ts.init.InitTimestamp) + int64(ts.acc.PTSWrapCount)*(1<<32)

	halfWindow := int64(float64(ts.init.ClockRate) * netReportHalfWindowFraction)
	if currentPTS-ts.acc.PreviousReportPTS > halfWindow {
		n.emitReport(ts, currentPTS, halfWindow)
		ts.acc.WindowLoss = 0
		ts.acc.WindowRecv = 0
		ts.acc.JitterSamples = ts.acc.JitterSamples[:0]
		ts.acc.PreviousReportPTS = currentPTS
	}

	ts.acc.PrevSeq = rec.Sequence
	ts.acc.PrevTimestamp = rec.Timestamp
	ts.acc.PrevArrival = rec.ArrivalMonotonic
}

// sequenceGap implements the sequence-wrap law: normal forward
// progress, wraparound within the [65500,35) window, or rejection of
// anything else as stale/out-of-order.
func sequenceGap(prevSeq, currSeq uint16) (gap uint64, accepted bool) {
	if currSeq == prevSeq {
		return 0, false
	}
	if currSeq > prevSeq {
		return uint64(currSeq) - uint64(prevSeq) - 1, true
	}
	if prevSeq > 65500 && currSeq < 35 {
		return uint64(currSeq) + 65536 - uint64(prevSeq) - 1, true
	}
	return 0, false
}

// timestampWrapped implements the timestamp-wrap law.
func timestampWrapped(prevTimestamp, currTimestamp, clockRate uint32) bool {
	return currTimestamp < prevTimestamp &&
		uint64(prevTimestamp) > (1<<32)-uint64(clockRate) &&
		currTimestamp < clockRate
}

func (n *NetAnalyzer) emitReport(ts *trackState, currentPTS, halfWindow int64) {
	start := time.Now()
	defer MeasureOperation("net_analyzer", start)

	rttMs := n.rtt.SnapshotMillis()
	jitterMs := meanJitterMs(ts.acc.JitterSamples)
	windowLossPct := ratioPct(ts.acc.WindowLoss, ts.acc.WindowRecv)
	totalLossPct := ratioPct(ts.acc.TotalLoss, ts.acc.TotalRecv)

	track := string(ts.init.Kind)
	line := fmt.Sprintf("Track:%s, Delay: %.2f ms, Jitter: %.2f ms, Loss_rate: %.2f %%, Total_loss_rate: %.2f %%",
		track, rttMs, jitterMs, windowLossPct, totalLossPct)

	reportFile := "video-Net-Status.srt"
	if ts.init.Kind == TrackAudio {
		reportFile = "audio-Net-Status.srt"
	}

	if n.writer != nil {
		if err := n.writer.AppendBlock(reportFile, currentPTS, currentPTS+halfWindow, ts.init.ClockRate, line); err != nil {
			log.Printf("net_analyzer: subtitle write error: %v", err)
		}
	}

	SetNetLoss(track, windowLossPct)
	SetNetJitter(track, jitterMs)
	SetNetRTT(rttMs)

	if n.cache != nil {
		n.cache.StoreReport(ts.init.SSRC, map[string]any{
			"track": track, "rtt_ms": rttMs, "jitter_ms": jitterMs,
			"loss_pct": windowLossPct, "total_loss_pct": totalLossPct,
		})
	}
	if n.store != nil {
		if err := n.store.InsertNetReport(track, ts.init.SSRC, windowLossPct, jitterMs, rttMs); err != nil {
			log.Printf("net_analyzer: mysql insert error: %v", err)
		}
	}

	alertCfg := n.alertCfg
	if cfg := GetConfig(); cfg != nil {
		alertCfg = cfg.AlertSettings
	}
	CheckNetworkAlerts(track, windowLossPct, jitterMs, rttMs, alertCfg)
}

func meanJitterMs(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return (sum / float64(len(samples))) * 1000.0
}

func ratioPct(numerator, denominator uint64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100.0
}

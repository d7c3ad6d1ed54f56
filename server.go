package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"streamprobe/internal"
)

// ProbeServer is the supervisor process: it owns
// the process-wide stop signal, wires the Forwarder, Stream Ingestor
// and the three analyzers together, and tracks every long-lived
// resource for orderly shutdown.
type ProbeServer struct {
	config *internal.Config

	forwarder *internal.Forwarder
	ingestor  *internal.StreamIngestor

	netAnalyzer   *internal.NetAnalyzer
	videoAnalyzer *internal.VideoAnalyzer
	audioAnalyzer *internal.AudioAnalyzer
	rttProber     *internal.RTTProber

	subtitles   *internal.SubtitleWriter
	tsPersister *internal.TSPersister
	reportCache *internal.ReportCache
	reportStore *internal.ReportStore

	streamInfo *internal.StreamInfo
	latestRTT  *internal.LatestRTT

	stop *atomic.Bool

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	resources *internal.ResourceGroup
}

// NewProbeServer constructs an idle ProbeServer; call loadConfig then
// initializeServices to bring the pipeline up.
func NewProbeServer() *ProbeServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &ProbeServer{
		ctx:        ctx,
		cancel:     cancel,
		stop:       &atomic.Bool{},
		streamInfo: &internal.StreamInfo{},
		latestRTT:  &internal.LatestRTT{},
		resources:  internal.NewResourceGroup(),
	}
}

// Shutdown performs the graceful shutdown sequence: raise
// the stop flag so every Run loop returns, wait (bounded) for the
// worker goroutines, then close every tracked resource via the
// ResourceGroup, in the order the resources were registered.
func (p *ProbeServer) Shutdown() {
	log.Println("🔄 Starting graceful shutdown...")

	p.stop.Store(true)
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("✅ All pipeline goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Println("⚠️ Shutdown timed out waiting for pipeline goroutines")
	}

	internal.ClosePCAPCapture()

	if err := internal.StopMetricsServer(); err != nil {
		log.Printf("⚠️ Error stopping metrics server: %v", err)
	}

	// Subtitle writer, TS persister, report store/cache and the status
	// API's HTTP server are all tracked here, each bounded by its own
	// close timeout so one wedged collaborator can't stall the others.
	if err := p.resources.Close(); err != nil {
		log.Printf("⚠️ Error closing tracked resources: %v", err)
	}

	log.Println("✅ Graceful shutdown completed")
}

// GetConfig returns the currently loaded configuration.
func (p *ProbeServer) GetConfig() *internal.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// buildStatusPayload is registered with internal.SetStatusProvider and
// answers the read-only /status endpoint.
func (p *ProbeServer) buildStatusPayload() any {
	return map[string]any{
		"stream_status":    p.streamInfo.Status(),
		"has_video":        p.streamInfo.HasVideo,
		"has_audio":        p.streamInfo.HasAudio,
		"video_clock_rate": p.streamInfo.VideoClockRate,
		"audio_clock_rate": p.streamInfo.AudioClockRate,
		"latest_rtt_ms":    p.latestRTT.SnapshotMillis(),
		"recent_alerts":    internal.GetRecentAlerts(),
		"supported_audio_codecs": []string{
			internal.CodecNameForPayloadType(0),
			internal.CodecNameForPayloadType(8),
		},
	}
}

// startMetricsServer exposes /metrics. It is not added to the
// ResourceGroup; Shutdown stops it directly via StopMetricsServer.
func (p *ProbeServer) startMetricsServer() {
	if err := internal.StartMetricsServer(":9091"); err != nil {
		log.Printf("❌ Failed to start metrics server: %v", err)
		return
	}
	log.Println("✅ Metrics server started on :9091")
}

func (p *ProbeServer) waitForEnterOrSignal() {
	fmt.Println("Press Enter to stop the probe...")
	enterCh := make(chan struct{})
	go func() {
		var line string
		fmt.Scanln(&line)
		close(enterCh)
	}()

	select {
	case <-enterCh:
		log.Println("🛑 Enter pressed, stopping probe...")
	case <-p.ctx.Done():
	}
}

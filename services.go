package main

import (
	"fmt"
	"log"
	"time"

	"streamprobe/internal"
)

// initializeServices wires up the whole pipeline:
// Forwarder, RTSP Parser (embedded in the Forwarder), Stream Ingestor,
// Net/Video/Audio Analyzers, RTT Prober, plus the TS Persister and
// Subtitle Writer collaborators and the optional Redis/MySQL/PCAP
// domain-stack additions.
func (p *ProbeServer) initializeServices() error {
	p.mu.RLock()
	cfg := p.config
	p.mu.RUnlock()

	if cfg == nil {
		return fmt.Errorf("❌ configuration not loaded")
	}

	if err := p.initCollaborators(cfg); err != nil {
		return err
	}

	p.forwarder = internal.NewForwarder(cfg, p.stop)
	p.ingestor = internal.NewStreamIngestor(cfg.Path, p.streamInfo)

	p.netAnalyzer = internal.NewNetAnalyzer(p.forwarder, p.latestRTT, p.subtitles, p.reportCache, p.reportStore, cfg.AlertSettings)
	p.rttProber = internal.NewRTTProber(cfg.ServerHost, p.latestRTT)

	videoQueue := internal.NewDroppingQueue[internal.VideoFrame](videoFrameQueueDepth, "video-analyzer", "video_queue_full")
	audioQueue := internal.NewDroppingQueue[internal.AudioFrame](audioFrameQueueDepth, "audio-analyzer", "audio_queue_full")
	p.ingestor.SubscribeVideo(videoQueue)
	p.ingestor.SubscribeAudio(audioQueue)

	p.videoAnalyzer = internal.NewVideoAnalyzer(videoQueue, p.streamInfo, p.subtitles, p.reportStore)
	p.audioAnalyzer = internal.NewAudioAnalyzer(audioQueue, p.streamInfo, p.subtitles, p.reportStore)

	internal.SetStatusProvider(p.buildStatusPayload)

	p.startPipeline()

	log.Println("✅ All services initialized successfully")
	return nil
}

const (
	videoFrameQueueDepth = 32
	audioFrameQueueDepth = 64
)

// initCollaborators brings up the Subtitle Writer plus the optional
// domain-stack additions (Redis, MySQL, PCAP). The config is already
// loaded by then, and the TS Persister is created later, in
// startPipeline.
const collaboratorCloseTimeout = 5 * time.Second

func (p *ProbeServer) initCollaborators(cfg *internal.Config) error {
	writer, err := internal.NewSubtitleWriter()
	if err != nil {
		return fmt.Errorf("❌ failed to initialize subtitle writer: %w", err)
	}
	p.subtitles = writer
	p.resources.Add(internal.NewResourceWithTimeout(writer, collaboratorCloseTimeout))

	p.reportCache = internal.NewReportCache(cfg)
	if p.reportCache.Enabled {
		go p.reportCache.AutoCleanup(time.Duration(cfg.Database.RedisCleanupInterval) * time.Second)
	}
	p.resources.Add(internal.NewResourceWithTimeout(p.reportCache, collaboratorCloseTimeout))

	if cfg.Database.MySQLDSN != "" {
		store, err := internal.NewReportStore(cfg.Database.MySQLDSN)
		if err != nil {
			log.Printf("⚠️ MySQL unavailable, historical persistence disabled: %v", err)
		} else {
			p.reportStore = store
			p.resources.Add(internal.NewResourceWithTimeout(store, collaboratorCloseTimeout))
		}
	}

	if cfg.RTPSettings.EnablePCAP {
		internal.SetPCAPEnabled(true)
	}

	return nil
}

// startPipeline launches every long-lived component as a tracked
// goroutine. The Forwarder must come up first since the Stream
// Ingestor dials through it; the TS Persister is constructed lazily
// once the Stream Ingestor has learned which tracks exist.
func (p *ProbeServer) startPipeline() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.forwarder.Run(p.ctx); err != nil {
			log.Printf("❌ forwarder stopped: %v", err)
			p.stop.Store(true)
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.ingestor.Run(p.stop.Load); err != nil {
			log.Printf("❌ stream ingestor stopped: %v", err)
			p.stop.Store(true)
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.streamInfo.WaitUntilStarted(p.stop.Load)
		persister, err := internal.NewTSPersister(p.streamInfo)
		if err != nil {
			log.Printf("⚠️ TS persistence disabled: %v", err)
			return
		}
		p.mu.Lock()
		p.tsPersister = persister
		p.mu.Unlock()
		p.resources.Add(internal.NewResourceWithTimeout(persister, collaboratorCloseTimeout))
		p.ingestor.SetPersister(persister)
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.netAnalyzer.Run(p.stop.Load)
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.videoAnalyzer.Run(p.stop.Load)
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.audioAnalyzer.Run(p.stop.Load)
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.rttProber.Run(p.stop.Load)
	}()

	log.Println("✅ Pipeline goroutines started")
}

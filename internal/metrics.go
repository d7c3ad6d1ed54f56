package internal

import (
	"context"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the probe pipeline's network/media quality
// indicators.
var (
	metricsMutex  sync.RWMutex
	metricsServer *http.Server

	goroutinesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_goroutines",
		Help: "Current number of goroutines",
	})

	memoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_memory_bytes",
		Help: "Current memory usage in bytes",
	})

	reportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "probe_report_emit_seconds",
			Help:    "Wall-clock time spent building and writing a report line",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		},
		[]string{"analyzer"},
	)

	rtpPacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "probe_rtp_packets_total",
		Help: "Total number of RTP header windows sniffed by the Forwarder",
	})

	rtpPacketsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "probe_rtp_packets_dropped_total",
		Help: "Total number of RTP packets dropped before accounting",
	}, []string{"reason"})

	netLoss = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probe_net_loss_ratio",
		Help: "Most recent windowed loss rate per track, in percent",
	}, []string{"track"})

	netJitterMs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "probe_net_jitter_ms",
		Help: "Most recent mean jitter in milliseconds per track",
	}, []string{"track"})

	netRTTMs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_net_rtt_ms",
		Help: "Most recently measured round-trip time in milliseconds",
	})

	videoBitrateMbps = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_video_bitrate_mbps",
		Help: "Most recent video bitrate estimate in Mbps",
	})

	videoFPS = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_video_fps",
		Help: "Most recent estimated frame rate",
	})

	videoGreenRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_video_green_ratio",
		Help: "Most recent green-screen pixel ratio",
	})

	videoMosaicRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_video_mosaic_ratio",
		Help: "Most recent mosaic/blockiness block ratio",
	})

	audioVoiceDB = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_audio_max_voice_db",
		Help: "Most recent max voice loudness in dB",
	})

	audioNoiseDB = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "probe_audio_max_noise_db",
		Help: "Most recent max noise loudness in dB",
	})

	errorsByType = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "probe_errors_total",
			Help: "Total number of errors by taxonomy code",
		},
		[]string{"code"},
	)
)

// InitMetrics registers every metric with the default Prometheus
// registry and starts the background system-metrics collector.
func InitMetrics() {
	prometheus.MustRegister(
		goroutinesGauge, memoryUsage, reportLatency,
		rtpPacketsTotal, rtpPacketsDropped,
		netLoss, netJitterMs, netRTTMs,
		videoBitrateMbps, videoFPS, videoGreenRatio, videoMosaicRatio,
		audioVoiceDB, audioNoiseDB,
		errorsByType,
	)

	go collectSystemMetrics()
	log.Println("✅ Metrics system initialized")
}

// StartMetricsServer exposes /metrics on address (default :9091).
func StartMetricsServer(address string) error {
	if address == "" {
		address = ":9091"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         address,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsMutex.Lock()
	metricsServer = server
	metricsMutex.Unlock()

	go func() {
		log.Printf("🔍 Starting metrics server on %s", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Metrics server error: %v", err)
		}
	}()

	return nil
}

// StopMetricsServer gracefully stops the metrics HTTP server.
func StopMetricsServer() error {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if metricsServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Println("🛑 Shutting down metrics server...")
	return metricsServer.Shutdown(ctx)
}

func IncrementRTPPackets()                  { rtpPacketsTotal.Inc() }
func IncrementDroppedPackets(reason string) { rtpPacketsDropped.WithLabelValues(reason).Inc() }
func SetNetLoss(track string, ratio float64) { netLoss.WithLabelValues(track).Set(ratio) }
func SetNetJitter(track string, ms float64)  { netJitterMs.WithLabelValues(track).Set(ms) }
func SetNetRTT(ms float64)                   { netRTTMs.Set(ms) }
func SetVideoBitrate(mbps float64)           { videoBitrateMbps.Set(mbps) }
func SetVideoFPS(fps float64)                { videoFPS.Set(fps) }
func SetVideoGreenRatio(ratio float64)       { videoGreenRatio.Set(ratio) }
func SetVideoMosaicRatio(ratio float64)      { videoMosaicRatio.Set(ratio) }
func SetAudioVoiceDB(db float64)             { audioVoiceDB.Set(db) }
func SetAudioNoiseDB(db float64)             { audioNoiseDB.Set(db) }

// IncrementErrorMetric increments the error counter for an error code.
func IncrementErrorMetric(code string) {
	errorsByType.WithLabelValues(code).Inc()
}

// MeasureOperation records how long a report-emission took.
func MeasureOperation(analyzer string, start time.Time) {
	reportLatency.WithLabelValues(analyzer).Observe(time.Since(start).Seconds())
}

func collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		goroutinesGauge.Set(float64(runtime.NumGoroutine()))

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		memoryUsage.Set(float64(memStats.Alloc))
	}
}

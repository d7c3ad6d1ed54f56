package internal

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// RTP packet capture to a PCAP file, for offline debugging of the
// relayed RTP stream. Optional, config-gated by rtp_settings.enable_pcap.
var (
	pcapMu      sync.Mutex
	pcapFile    *os.File
	pcapWriter  *pcapgo.Writer
	pcapEnabled bool
)

// InitPCAPCapture creates logs/probe_capture.pcap and prepares the
// writer. Safe to call even when disabled; callers gate with
// SetPCAPEnabled based on config.
func InitPCAPCapture() {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
		return
	}

	f, err := os.Create("logs/probe_capture.pcap")
	if err != nil {
		log.Printf("Failed to create PCAP file: %v", err)
		return
	}

	writer := pcapgo.NewWriter(f)
	if err := writer.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Printf("Failed to write PCAP header: %v", err)
		f.Close()
		return
	}

	pcapMu.Lock()
	pcapFile = f
	pcapWriter = writer
	pcapMu.Unlock()

	log.Println("📼 Packet capture initialized: logs/probe_capture.pcap")
}

// IsPCAPEnabled reports whether packet capture is currently active.
func IsPCAPEnabled() bool {
	pcapMu.Lock()
	defer pcapMu.Unlock()
	return pcapEnabled
}

// SetPCAPEnabled turns capture on or off, lazily initializing the file
// on first enable.
func SetPCAPEnabled(enabled bool) {
	pcapMu.Lock()
	needsInit := enabled && pcapWriter == nil
	pcapEnabled = enabled
	pcapMu.Unlock()

	if needsInit {
		InitPCAPCapture()
	} else if !enabled {
		ClosePCAPCapture()
	}
}

// CapturePacket writes a raw RTP-over-TCP payload to the PCAP file.
func CapturePacket(packet []byte) {
	pcapMu.Lock()
	defer pcapMu.Unlock()
	if pcapWriter == nil || !pcapEnabled {
		return
	}

	pcapWriter.WritePacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(packet),
		Length:        len(packet),
	}, packet)
}

// ClosePCAPCapture flushes and closes the PCAP file.
func ClosePCAPCapture() {
	pcapMu.Lock()
	defer pcapMu.Unlock()
	if pcapFile != nil {
		if err := CloseWithTimeout(pcapFile, 2*time.Second); err != nil {
			log.Printf("⚠️ Error closing PCAP file: %v", err)
		}
		pcapFile = nil
		pcapWriter = nil
		log.Println("📼 PCAP capture file closed.")
	}
}

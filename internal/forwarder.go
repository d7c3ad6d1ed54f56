package internal

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"net"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"
)

const forwarderListenAddr = "127.0.0.1:12024"

// ControlEvent is one item on the Forwarder→Net Analyzer control
// channel: either a completed TrackInit or the "start" sentinel that
// follows RTP-Info parsing.
type ControlEvent struct {
	Init  *TrackInit
	Start bool
}

// RTPWindow is the 12-byte RTP header window the Forwarder sniffs out
// of an interleaved frame on channel 0 or 2, tagged with its local
// arrival time.
type RTPWindow struct {
	Data    []byte
	Arrival time.Time
}

// Forwarder is the RTSP/RTP man-in-the-middle relay sitting between
// the real RTSP source and the Stream Ingestor. It owns the listener
// and both per-connection relay
// goroutines; everything it learns about track bindings and sniffed
// RTP headers is handed off over non-blocking queues so a slow
// consumer never stalls the byte-for-byte relay.
type Forwarder struct {
	upstreamHost string
	upstreamPort int

	ControlOut *DroppingQueue[ControlEvent]
	DataOut    *DroppingQueue[RTPWindow]

	stop *atomic.Bool
}

// NewForwarder builds a Forwarder targeting the real RTSP server
// described by cfg.
func NewForwarder(cfg *Config, stop *atomic.Bool) *Forwarder {
	return &Forwarder{
		upstreamHost: cfg.ServerHost,
		upstreamPort: cfg.ServerPort,
		ControlOut:   NewDroppingQueue[ControlEvent](64, "forwarder-control", "control_queue_full"),
		DataOut:      NewDroppingQueue[RTPWindow](4096, "forwarder-rtp", "rtp_queue_full"),
		stop:         stop,
	}
}

// Run listens on 127.0.0.1:12024 and relays one client connection at a
// time (the probe's expected use is a single co-located RTSP client).
// It blocks until ctx is cancelled or the stop flag is raised.
func (f *Forwarder) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", forwarderListenAddr)
	if err != nil {
		return NewError(err, ErrCodeForwarder, "Forwarder", "Listen").WithContext(forwarderListenAddr)
	}
	defer CloseWithLogging(listener, "forwarder listener")

	log.Printf("🔀 Forwarder listening on %s, relaying to %s:%d", forwarderListenAddr, f.upstreamHost, f.upstreamPort)

	tcpListener, ok := listener.(*net.TCPListener)
	if ok {
		tcpListener.SetDeadline(time.Now().Add(time.Second))
	}

	for {
		if f.stop.Load() || ctx.Err() != nil {
			return nil
		}

		if tcpListener != nil {
			tcpListener.SetDeadline(time.Now().Add(time.Second))
		}

		clientConn, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if f.stop.Load() || ctx.Err() != nil {
				return nil
			}
			log.Printf("forwarder accept error: %v", err)
			continue
		}

		f.handleConnection(ctx, clientConn)
	}
}

func (f *Forwarder) handleConnection(ctx context.Context, clientConn net.Conn) {
	defer clientConn.Close()

	upstreamAddr := net.JoinHostPort(f.upstreamHost, strconv.Itoa(f.upstreamPort))
	upstreamConn, err := net.DialTimeout("tcp", upstreamAddr, 5*time.Second)
	if err != nil {
		log.Printf("forwarder: failed to dial upstream %s: %v", upstreamAddr, err)
		return
	}
	defer upstreamConn.Close()

	if tc, ok := clientConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	if tc, ok := upstreamConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	done := make(chan struct{}, 2)

	// client -> server: pure byte copy, no sniffing.
	go func() {
		defer func() { done <- struct{}{} }()
		relayBytes(upstreamConn, clientConn)
	}()

	// server -> client: sniffed relay.
	go func() {
		defer func() { done <- struct{}{} }()
		f.sniffingRelay(ctx, clientConn, upstreamConn)
	}()

	<-done
	CloseQuietly(clientConn)
	CloseQuietly(upstreamConn)
	<-done
}

func relayBytes(dst net.Conn, src net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// sniffingRelay reads the server→client stream, forwards every byte
// unchanged to the client, and parses RTSP text frames and RTP
// interleaved frames out of the same buffer.
func (f *Forwarder) sniffingRelay(ctx context.Context, client net.Conn, server net.Conn) {
	parser := NewParserState()
	var pending []byte

	buf := make([]byte, 4096)
	for {
		if f.stop.Load() || ctx.Err() != nil {
			return
		}

		server.SetReadDeadline(time.Now().Add(time.Second))
		n, err := server.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, werr := client.Write(chunk); werr != nil {
				return
			}
			Heartbeat("forwarder")
			pending = append(pending, chunk...)
			pending = f.consumeFrames(parser, pending)
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
	}
}

// consumeFrames extracts as many complete RTSP text frames or RTP
// interleaved frames as it can from buf, dispatches each, and returns
// the unconsumed remainder.
func (f *Forwarder) consumeFrames(parser *ParserState, buf []byte) []byte {
	for len(buf) > 0 {
		if buf[0] == 0x24 { // '$' interleaved frame marker
			if len(buf) < 4 {
				return buf
			}
			channel := buf[1]
			length := int(binary.BigEndian.Uint16(buf[2:4]))
			if len(buf) < 4+length {
				return buf
			}

			payload := buf[4 : 4+length]
			if (channel == 0 || channel == 2) && len(payload) >= 12 {
				IncrementRTPPackets()
				window := append([]byte(nil), payload[:12]...)
				CapturePacket(window)
				f.DataOut.Push(RTPWindow{Data: window, Arrival: time.Now()})
			}

			buf = buf[4+length:]
			continue
		}

		if bytes.HasPrefix(buf, []byte("RTSP/1.0")) {
			end := bytes.Index(buf, []byte("\r\n\r\n"))
			if end < 0 {
				return buf
			}
			headerEnd := end + 4

			contentLength := 0
			if m := contentLengthRe.FindSubmatch(buf[:headerEnd]); m != nil {
				contentLength, _ = strconv.Atoi(string(m[1]))
			}
			total := headerEnd + contentLength
			if len(buf) < total {
				return buf
			}

			message := string(buf[:total])
			if stopNow := parser.HandleMessage(message); stopNow {
				f.stop.Store(true)
			} else {
				f.publishCompletedTracks(parser)
			}

			buf = buf[total:]
			continue
		}

		// Not a recognized frame start; best effort, drop one byte and
		// keep scanning rather than stalling the relay forever.
		buf = buf[1:]
	}
	return buf
}

func (f *Forwarder) publishCompletedTracks(parser *ParserState) {
	allComplete := true
	for i := range parser.Tracks {
		if parser.Tracks[i].HasAll() {
			t := parser.Tracks[i].Clone()
			f.ControlOut.Push(ControlEvent{Init: &t})
		} else {
			allComplete = false
		}
	}
	if allComplete {
		f.ControlOut.Push(ControlEvent{Start: true})
	}
}

var contentLengthRe = regexp.MustCompile(`(?i)Content-Length:\s*(\d+)`)

package internal

import (
	"log"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const rttProbeTimeout = 450 * time.Millisecond

// RTTProber ICMP-pings the RTSP server host in a tight loop (no delay
// between iterations beyond the ping's own blocking time) and
// publishes the measured round-trip time into a shared cell consumed
// by the Net Analyzer.
type RTTProber struct {
	host string
	out  *LatestRTT
}

// NewRTTProber targets host, writing measurements into out.
func NewRTTProber(host string, out *LatestRTT) *RTTProber {
	return &RTTProber{host: host, out: out}
}

// Run loops until stop returns true.
func (p *RTTProber) Run(stop func() bool) {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		log.Printf("rtt_prober: failed to open ICMP socket (%v); RTT will report unknown", err)
		return
	}
	defer conn.Close()

	dst, err := net.ResolveIPAddr("ip4", p.host)
	if err != nil {
		log.Printf("rtt_prober: failed to resolve %s: %v", p.host, err)
		return
	}

	seq := 0
	for {
		if stop() {
			return
		}
		seq++
		rtt, err := p.ping(conn, dst, seq)
		switch {
		case err == nil:
			p.out.Set(rtt)
		case err == errNoReply:
			p.out.Set(0)
		default:
			log.Printf("rtt_prober: probe error: %v", err)
		}
		Heartbeat("rtt_prober")
	}
}

var errNoReply = &noReplyError{}

type noReplyError struct{}

func (*noReplyError) Error() string { return "icmp: no reply" }

func (p *RTTProber) ping(conn *icmp.PacketConn, dst *net.IPAddr, seq int) (float64, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  seq,
			Data: []byte("streamprobe-rtt"),
		},
	}

	data, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	// The "udp4" endpoint opened in Run is a non-privileged datagram
	// ICMP socket, which takes a *net.UDPAddr destination.
	if _, err := conn.WriteTo(data, &net.UDPAddr{IP: dst.IP}); err != nil {
		return 0, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(rttProbeTimeout)); err != nil {
		return 0, err
	}

	reply := make([]byte, 1500)
	n, _, err := conn.ReadFrom(reply)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, errNoReply
		}
		return 0, err
	}

	parsed, err := icmp.ParseMessage(1, reply[:n])
	if err != nil {
		return 0, err
	}
	if parsed.Type != ipv4.ICMPTypeEchoReply {
		return 0, errNoReply
	}

	return time.Since(start).Seconds(), nil
}

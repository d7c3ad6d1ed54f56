package internal

import "log"

// debugLogging gates verbose per-packet logging across the package.
var debugLogging = false

// EnableDebugLogging turns verbose per-packet logging on or off.
func EnableDebugLogging(enable bool) { debugLogging = enable }

// IsDebugLoggingEnabled reports whether verbose per-packet logging is on.
func IsDebugLoggingEnabled() bool { return debugLogging }

// DroppingQueue is a bounded, non-blocking channel wrapper: once full,
// new items are dropped rather than blocking the sender. The forwarder
// and stream ingestor use one per downstream consumer (per-SSRC Net
// Analyzer, per-track frame subscriber) so a slow analyzer never stalls
// the relay path.
type DroppingQueue[T any] struct {
	ch     chan T
	name   string
	reason string
}

// NewDroppingQueue creates a queue with the given buffer capacity. name
// identifies the queue in dropped-packet logs and metrics; reason is
// the label recorded against probe_rtp_packets_dropped_total when this
// queue is full.
func NewDroppingQueue[T any](capacity int, name, reason string) *DroppingQueue[T] {
	return &DroppingQueue[T]{
		ch:     make(chan T, capacity),
		name:   name,
		reason: reason,
	}
}

// Push attempts a non-blocking send. It reports whether the item was
// accepted.
func (q *DroppingQueue[T]) Push(item T) bool {
	select {
	case q.ch <- item:
		return true
	default:
		IncrementDroppedPackets(q.reason)
		if IsDebugLoggingEnabled() {
			log.Printf("queue %s full, dropping item", q.name)
		}
		return false
	}
}

// C exposes the underlying receive channel for range loops.
func (q *DroppingQueue[T]) C() <-chan T {
	return q.ch
}

// Close closes the underlying channel. Callers must ensure no further
// Push calls occur afterward.
func (q *DroppingQueue[T]) Close() {
	close(q.ch)
}

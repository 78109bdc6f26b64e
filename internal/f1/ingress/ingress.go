// Package ingress receives raw telemetry datagrams, tees them to the
// forwarders and the capture writer, decodes them, and hands typed packets
// to the race model through class-aware bounded queues.
package ingress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/pitwall-live/pitwall/internal/f1/capture"
	"github.com/pitwall-live/pitwall/internal/f1/codec"
	"github.com/pitwall-live/pitwall/internal/monitoring"
)

// Queue depths. State packets (session, lap data, events, ...) carry
// information that cannot be regenerated, so their queue is deep and a full
// queue is given a bounded wait before the drop is counted loudly. Physics
// packets arrive at up to 60 Hz per kind and are superseded by the next
// sample, so their queue is shallow and evicts oldest-first.
const (
	stateQueueDepth   = 1024
	physicsQueueDepth = 128
)

// stateEnqueueWait bounds how long the ingest loop blocks on a full state
// queue before counting the drop.
const stateEnqueueWait = 250 * time.Millisecond

// readBufferSize fits the largest telemetry datagram with margin.
const readBufferSize = 4096

// maxBackoff caps the retry delay after persistent socket errors.
const maxBackoff = 5 * time.Second

// Forwarder tees raw datagrams to downstream UDP consumers.
type Forwarder interface {
	Forward(packet []byte)
}

// Stats is the receiver's counter set. All fields are atomics so HTTP
// handlers can snapshot them while the receive loop runs.
type Stats struct {
	Received       atomic.Uint64
	Bytes          atomic.Uint64
	Decoded        atomic.Uint64
	DecodeErrors   atomic.Uint64
	DroppedPhysics atomic.Uint64
	DroppedState   atomic.Uint64
	CaptureErrors  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats for JSON surfaces.
type StatsSnapshot struct {
	Received       uint64 `json:"received"`
	Bytes          uint64 `json:"bytes"`
	Decoded        uint64 `json:"decoded"`
	DecodeErrors   uint64 `json:"decode_errors"`
	DroppedPhysics uint64 `json:"dropped_physics"`
	DroppedState   uint64 `json:"dropped_state"`
	CaptureErrors  uint64 `json:"capture_errors"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Received:       s.Received.Load(),
		Bytes:          s.Bytes.Load(),
		Decoded:        s.Decoded.Load(),
		DecodeErrors:   s.DecodeErrors.Load(),
		DroppedPhysics: s.DroppedPhysics.Load(),
		DroppedState:   s.DroppedState.Load(),
		CaptureErrors:  s.CaptureErrors.Load(),
	}
}

// Receiver owns the ingest loop for one telemetry source (live UDP or a
// replay stream) and the decoded-packet queues the race model drains.
type Receiver struct {
	bind  func() error
	serve func(ctx context.Context) error

	conn     *net.UDPConn // live mode, set by Listen
	listener net.Listener // replay mode, set by Listen

	forwarder Forwarder
	capture   atomic.Pointer[capture.Writer]

	stateQ   chan codec.Packet
	physicsQ chan codec.Packet

	stats Stats
}

func newReceiver(forwarder Forwarder) *Receiver {
	return &Receiver{
		forwarder: forwarder,
		stateQ:    make(chan codec.Packet, stateQueueDepth),
		physicsQ:  make(chan codec.Packet, physicsQueueDepth),
	}
}

// NewUDP builds a receiver bound to a local UDP address such as
// "0.0.0.0:20777".
func NewUDP(address string, recvBufBytes int, forwarder Forwarder) *Receiver {
	r := newReceiver(forwarder)
	r.bind = func() error { return r.bindUDP(address, recvBufBytes) }
	r.serve = r.serveUDP
	return r
}

// NewReplay builds a receiver that serves a TCP listener instead of binding
// the live socket; a replay feeder connects and pushes length-prefixed
// datagrams through the same decode path.
func NewReplay(address string, forwarder Forwarder) *Receiver {
	r := newReceiver(forwarder)
	r.bind = func() error { return r.bindReplay(address) }
	r.serve = r.serveReplay
	return r
}

// Listen binds the telemetry source. A failure here is fatal for the
// process, so it runs synchronously before Run.
func (r *Receiver) Listen() error { return r.bind() }

// Addr reports the bound local address. Valid after Listen.
func (r *Receiver) Addr() net.Addr {
	if r.conn != nil {
		return r.conn.LocalAddr()
	}
	if r.listener != nil {
		return r.listener.Addr()
	}
	return nil
}

// Stats exposes the receiver counters.
func (r *Receiver) Stats() *Stats { return &r.stats }

// SetCapture installs (or with nil removes) the capture writer the ingest
// loop tees raw datagrams into. Swapped at session boundaries.
func (r *Receiver) SetCapture(w *capture.Writer) {
	r.capture.Store(w)
}

// Capture returns the currently installed capture writer, or nil.
func (r *Receiver) Capture() *capture.Writer {
	return r.capture.Load()
}

// Run executes the ingest loop until ctx is cancelled. Listen must have
// succeeded first.
func (r *Receiver) Run(ctx context.Context) error {
	return r.serve(ctx)
}

// Receive returns the next decoded packet, preferring the state queue so a
// burst of physics packets can never starve session-critical updates. Blocks
// until a packet arrives or ctx is cancelled.
func (r *Receiver) Receive(ctx context.Context) (codec.Packet, error) {
	// Fast path: drain state first.
	select {
	case p := <-r.stateQ:
		return p, nil
	default:
	}
	select {
	case p := <-r.stateQ:
		return p, nil
	case p := <-r.physicsQ:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Receiver) bindUDP(address string, recvBufBytes int) error {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return fmt.Errorf("resolve telemetry address %s: %w", address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind telemetry socket on %s: %w", address, err)
	}
	if err := conn.SetReadBuffer(recvBufBytes); err != nil {
		monitoring.Logf("warning: failed to set UDP receive buffer to %d: %v", recvBufBytes, err)
	}
	r.conn = conn
	monitoring.Logf("telemetry listener started on %s with receive buffer %d bytes", conn.LocalAddr(), recvBufBytes)
	return nil
}

func (r *Receiver) serveUDP(ctx context.Context) error {
	conn := r.conn
	defer conn.Close()

	buffer := make([]byte, readBufferSize)
	backoff := 50 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("telemetry listener stopping")
			return ctx.Err()
		default:
		}

		// Read deadline keeps the loop responsive to cancellation.
		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			monitoring.Logf("UDP read error: %v (retrying in %v)", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 50 * time.Millisecond
		r.ingest(buffer[:n])
	}
}

func (r *Receiver) bindReplay(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to bind replay listener on %s: %w", address, err)
	}
	r.listener = listener
	monitoring.Logf("replay listener started on %s", listener.Addr())
	return nil
}

func (r *Receiver) serveReplay(ctx context.Context) error {
	listener := r.listener
	defer listener.Close()

	// Close the listener when ctx ends so the blocked accept returns.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			monitoring.Logf("replay accept error: %v", err)
			continue
		}
		r.serveReplayConn(ctx, conn)
	}
}

// serveReplayConn drains one feeder connection through the ingest path.
// Feeders are served one at a time; interleaved streams make no sense.
func (r *Receiver) serveReplayConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	monitoring.Logf("replay feeder connected from %s", conn.RemoteAddr())

	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-connDone:
		}
	}()

	for {
		data, err := readReplayFrame(conn)
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, errReplayEOF):
				monitoring.Logf("replay stream finished")
			default:
				monitoring.Logf("replay stream error: %v", err)
			}
			return
		}
		r.ingest(data)
	}
}

// ingest tees a raw datagram to the forwarders and capture writer, then
// decodes and enqueues it. Raw copies happen before decode so captures and
// forwards include packets the decoder rejects.
func (r *Receiver) ingest(data []byte) {
	r.stats.Received.Add(1)
	r.stats.Bytes.Add(uint64(len(data)))

	if r.forwarder != nil {
		r.forwarder.Forward(data)
	}
	if w := r.capture.Load(); w != nil {
		if err := w.Append(time.Now(), data); err != nil {
			r.stats.CaptureErrors.Add(1)
		}
	}

	pkt, err := codec.Decode(data)
	if err != nil {
		r.stats.DecodeErrors.Add(1)
		return
	}
	r.stats.Decoded.Add(1)

	if pkt.Kind().IsPhysics() {
		for {
			select {
			case r.physicsQ <- pkt:
				return
			default:
			}
			// Evict the oldest sample so the freshest physics survives.
			select {
			case <-r.physicsQ:
				r.stats.DroppedPhysics.Add(1)
			default:
			}
		}
	}
	select {
	case r.stateQ <- pkt:
	default:
		// Should not happen at game rates; give the reader a bounded wait
		// before counting the loss.
		t := time.NewTimer(stateEnqueueWait)
		select {
		case r.stateQ <- pkt:
			t.Stop()
		case <-t.C:
			r.stats.DroppedState.Add(1)
		}
	}
}

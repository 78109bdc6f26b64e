// Package forward replicates raw telemetry datagrams to additional UDP
// consumers (other dashboards, capture rigs) without ever blocking the
// ingress path.
package forward

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitwall-live/pitwall/internal/monitoring"
)

// queueDepth is the per-endpoint buffer. A full queue drops the newest
// packet rather than stalling ingress.
const queueDepth = 1000

// Forwarder fans raw datagrams out to one or more UDP endpoints. Each
// endpoint gets its own queue and writer goroutine so one slow or dead
// endpoint cannot hold up the others.
type Forwarder struct {
	endpoints []*endpoint
}

type endpoint struct {
	address string
	conn    *net.UDPConn
	queue   chan []byte

	dropped   atomic.Uint64
	writeErrs atomic.Uint64
}

// EndpointStats is a point-in-time counter snapshot for one endpoint.
type EndpointStats struct {
	Address     string `json:"address"`
	Dropped     uint64 `json:"dropped"`
	WriteErrors uint64 `json:"write_errors"`
}

// New dials every endpoint up front. A single unresolvable address fails
// the whole constructor so misconfiguration surfaces at startup, not
// mid-session.
func New(addresses []string) (*Forwarder, error) {
	f := &Forwarder{}
	for _, addr := range addresses {
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			f.closeAll()
			return nil, fmt.Errorf("resolve forward address %q: %w", addr, err)
		}
		conn, err := net.DialUDP("udp", nil, udpAddr)
		if err != nil {
			f.closeAll()
			return nil, fmt.Errorf("dial forward address %q: %w", addr, err)
		}
		f.endpoints = append(f.endpoints, &endpoint{
			address: addr,
			conn:    conn,
			queue:   make(chan []byte, queueDepth),
		})
	}
	return f, nil
}

// Start launches one writer goroutine per endpoint. The goroutines exit
// when ctx is cancelled; wg tracks them for shutdown draining.
func (f *Forwarder) Start(ctx context.Context, wg *sync.WaitGroup) {
	for _, ep := range f.endpoints {
		wg.Add(1)
		go func(ep *endpoint) {
			defer wg.Done()
			ep.run(ctx)
		}(ep)
		monitoring.Logf("forwarding telemetry to %s", ep.address)
	}
}

func (ep *endpoint) run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastErr error
	var errsThisInterval uint64

	for {
		select {
		case <-ctx.Done():
			return
		case packet := <-ep.queue:
			if _, err := ep.conn.Write(packet); err != nil {
				ep.writeErrs.Add(1)
				errsThisInterval++
				lastErr = err
			}
		case <-ticker.C:
			if errsThisInterval > 0 {
				monitoring.Logf("forward %s: %d write errors this interval (latest: %v)",
					ep.address, errsThisInterval, lastErr)
				errsThisInterval = 0
				lastErr = nil
			}
		}
	}
}

// Forward queues a copy of the datagram on every endpoint. Never blocks:
// a full endpoint queue counts a drop and moves on.
func (f *Forwarder) Forward(packet []byte) {
	if len(f.endpoints) == 0 {
		return
	}
	// One copy shared by all queues; writers never mutate it.
	packetCopy := make([]byte, len(packet))
	copy(packetCopy, packet)

	for _, ep := range f.endpoints {
		select {
		case ep.queue <- packetCopy:
		default:
			ep.dropped.Add(1)
		}
	}
}

// Stats returns counter snapshots for every endpoint.
func (f *Forwarder) Stats() []EndpointStats {
	stats := make([]EndpointStats, 0, len(f.endpoints))
	for _, ep := range f.endpoints {
		stats = append(stats, EndpointStats{
			Address:     ep.address,
			Dropped:     ep.dropped.Load(),
			WriteErrors: ep.writeErrs.Load(),
		})
	}
	return stats
}

// Close releases all endpoint sockets.
func (f *Forwarder) Close() error {
	f.closeAll()
	return nil
}

func (f *Forwarder) closeAll() {
	for _, ep := range f.endpoints {
		if ep.conn != nil {
			ep.conn.Close()
		}
	}
}

//go:build pcap
// +build pcap

// Command pcap-replay extracts game telemetry datagrams from a network
// capture and feeds them into a pitwall process started with
// --replay-server. Packets are paced by their capture timestamps.
//
// Build with -tags=pcap; libpcap is required at link time.
//
// Usage:
//
//	go run -tags=pcap ./cmd/tools/pcap-replay -pcap session.pcap [flags]
//
// Flags:
//
//	-pcap   Path to the pcap file (required)
//	-port   UDP port the telemetry was captured on (default: 20777)
//	-addr   Replay listener address (default: 127.0.0.1:20777)
//	-speed  Playback speed multiplier (default: 1.0)
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/pitwall-live/pitwall/internal/f1/ingress"
)

func main() {
	pcapFile := flag.String("pcap", "", "Path to pcap file (required)")
	udpPort := flag.Int("port", 20777, "UDP port the telemetry was captured on")
	addr := flag.String("addr", "127.0.0.1:20777", "Replay listener address")
	speed := flag.Float64("speed", 1.0, "Playback speed multiplier")
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("Error: -pcap flag is required")
	}
	if *speed <= 0 {
		log.Fatal("Error: -speed must be positive")
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to connect to replay listener at %s: %v", *addr, err)
	}
	defer conn.Close()

	if err := replay(conn, *pcapFile, *udpPort, *speed); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
}

func replay(conn net.Conn, pcapFile string, udpPort int, speed float64) error {
	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open pcap file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filterStr, err)
	}
	log.Printf("BPF filter set: %s (speed: %.1fx)", filterStr, speed)

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetCount := 0
	startTime := time.Now()

	var prev time.Time
	for packet := range packetSource.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}

		ts := packet.Metadata().Timestamp
		if !prev.IsZero() {
			if gap := ts.Sub(prev); gap > 0 {
				time.Sleep(time.Duration(float64(gap) / speed))
			}
		}
		prev = ts

		if err := ingress.WriteReplayFrame(conn, udp.Payload); err != nil {
			return fmt.Errorf("write frame %d: %w", packetCount, err)
		}
		packetCount++
		if packetCount%10000 == 0 {
			elapsed := time.Since(startTime)
			log.Printf("Replay progress: %d packets in %v (%.0f pkt/s)",
				packetCount, elapsed, float64(packetCount)/elapsed.Seconds())
		}
	}

	log.Printf("Replay complete: %d packets sent in %v", packetCount, time.Since(startTime))
	return nil
}

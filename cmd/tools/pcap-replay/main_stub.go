//go:build !pcap
// +build !pcap

package main

import "log"

// Stub build when PCAP support is disabled.
// Build with -tags=pcap to enable pcap replay.
func main() {
	log.Fatal("pcap support not enabled: rebuild with -tags=pcap")
}

// Command replay-server feeds a recorded .f1cap capture into a pitwall
// process started with --replay-server.
//
// The main process serves the replay listener on its telemetry address;
// this tool connects to it and pushes the recorded datagrams, pacing them
// by their original capture timestamps.
//
// Usage:
//
//	go run ./cmd/tools/replay-server -capture session.f1cap [flags]
//
// Flags:
//
//	-addr     Replay listener address (default: 127.0.0.1:20777)
//	-capture  Path to the .f1cap file to replay (required)
//	-speed    Playback speed multiplier (default: 1.0)
//	-loop     Loop playback when reaching the end (default: false)
package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitwall-live/pitwall/internal/f1/capture"
	"github.com/pitwall-live/pitwall/internal/f1/ingress"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:20777", "Replay listener address")
	capturePath := flag.String("capture", "", "Path to .f1cap file (required)")
	speed := flag.Float64("speed", 1.0, "Playback speed multiplier")
	loop := flag.Bool("loop", false, "Loop playback when reaching end")
	flag.Parse()

	if *capturePath == "" {
		log.Fatal("Error: -capture flag is required")
	}
	if *speed <= 0 {
		log.Fatal("Error: -speed must be positive")
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to connect to replay listener at %s: %v", *addr, err)
	}
	defer conn.Close()
	log.Printf("Connected to replay listener at %s", *addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		sent, err := replayOnce(conn, *capturePath, *speed, sigCh)
		if err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		log.Printf("Replay complete: %d packets sent", sent)
		if sent < 0 || !*loop {
			return
		}
		log.Printf("Looping playback")
	}
}

// replayOnce streams the capture file through conn. Returns -1 when
// interrupted by a signal.
func replayOnce(conn net.Conn, path string, speed float64, sigCh <-chan os.Signal) (int, error) {
	r, err := capture.NewReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var first, prev time.Time
	sent := 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return sent, nil
		}
		if err != nil {
			return sent, err
		}

		if first.IsZero() {
			first = rec.Timestamp
			log.Printf("Replaying %s from %s", path, first.Format(time.RFC3339))
		} else if gap := rec.Timestamp.Sub(prev); gap > 0 {
			paced := time.Duration(float64(gap) / speed)
			select {
			case <-sigCh:
				log.Printf("Interrupted after %d packets", sent)
				return -1, nil
			case <-time.After(paced):
			}
		}
		prev = rec.Timestamp

		if err := ingress.WriteReplayFrame(conn, rec.Data); err != nil {
			return sent, err
		}
		sent++
	}
}

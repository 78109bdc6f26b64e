// pitwall is a real-time telemetry companion for the F1 game series
// (2023-2025). It ingests the game's UDP stream, maintains a race model,
// and fans snapshots out to dashboards over WebSocket and to HUD overlays
// over a loopback IPC bus.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/pitwall-live/pitwall/internal/config"
	"github.com/pitwall-live/pitwall/internal/f1/capture"
	"github.com/pitwall-live/pitwall/internal/f1/fanout"
	"github.com/pitwall-live/pitwall/internal/f1/forward"
	"github.com/pitwall-live/pitwall/internal/f1/ingress"
	"github.com/pitwall-live/pitwall/internal/f1/ipc"
	"github.com/pitwall-live/pitwall/internal/f1/model"
	"github.com/pitwall-live/pitwall/internal/monitoring"
	"github.com/pitwall-live/pitwall/internal/timeutil"
	"github.com/pitwall-live/pitwall/internal/version"
)

// Exit codes: 0 clean shutdown, 1 runtime fatal, 2 configuration error,
// 3 bind failure.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
	exitBind    = 3
)

// shutdownBudget bounds the graceful drain of every long-lived task.
const shutdownBudget = 500 * time.Millisecond

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(flag.NewFlagSet("pitwall", flag.ContinueOnError), args)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		log.Printf("configuration error: %v", err)
		return exitConfig
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("configuration error: cannot open log file: %v", err)
			return exitConfig
		}
		defer f.Close()
		log.SetOutput(f)
	}
	monitoring.SetDebug(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	var wg sync.WaitGroup

	// Forwarders dial up front so a bad endpoint fails fast.
	var fwd *forward.Forwarder
	if endpoints := cfg.ForwardEndpoints(); len(endpoints) > 0 {
		fwd, err = forward.New(endpoints)
		if err != nil {
			log.Printf("configuration error: %v", err)
			return exitConfig
		}
		defer fwd.Close()
		fwd.Start(ctx, &wg)
	}

	var rcv *ingress.Receiver
	source := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.TelemetryPort)
	if cfg.ReplayServer {
		rcv = ingress.NewReplay(source, forwarderOrNil(fwd))
	} else {
		rcv = ingress.NewUDP(source, cfg.RecvBufBytes, forwarderOrNil(fwd))
	}
	if err := rcv.Listen(); err != nil {
		log.Printf("%v", err)
		return exitBind
	}

	if cfg.Capture() != config.CaptureDisabled {
		w, err := capture.NewWriter(capturePath(cfg, time.Now()))
		if err != nil {
			log.Printf("failed to open capture file: %v", err)
			return exitRuntime
		}
		rcv.SetCapture(w)
	}

	// The session-end hook runs on the apply goroutine; hub is declared ahead
	// of the model so the closure can reach it.
	var hub *fanout.Hub
	mdl := model.New(model.Config{
		UDPActionCode:          cfg.UDPCustomActionCode,
		NumAdjacentCars:        cfg.NumAdjacentCars,
		FuelRateFromRegression: cfg.FuelRateFromRegression,
		Clock:                  timeutil.RealClock{},
		OnSessionEnd: func(a *model.Archive) {
			if cfg.PostRaceDataAutosave {
				if path, err := a.Save(cfg.CaptureDir); err != nil {
					monitoring.Logf("failed to save session archive: %v", err)
				} else {
					monitoring.Logf("session archive written to %s", path)
					hub.Notify("session-archived", map[string]string{"path": path})
				}
			}
			if cfg.Capture() == config.CaptureWithAutosave {
				rotateCapture(cfg, rcv, a)
			}
		},
	})

	hub = fanout.NewHub(mdl, timeutil.RealClock{}, cfg.RefreshInterval())
	hub.Run(ctx, &wg)

	// IPC bus to HUD overlays.
	bus := ipc.New(fmt.Sprintf("127.0.0.1:%d", cfg.IPCPort), timeutil.RealClock{})
	if err := bus.Start(); err != nil {
		log.Printf("%v", err)
		return exitBind
	}
	bus.Run(ctx, &wg)

	// Custom markers from overlays are routed through the apply goroutine;
	// the model has a single writer.
	markers := make(chan string, 16)
	bus.SetRequestHandler(func(verb string, payload json.RawMessage) (any, error) {
		if verb != "add-marker" {
			return nil, fmt.Errorf("unsupported verb %q", verb)
		}
		select {
		case markers <- "overlay_marker":
			return map[string]bool{"accepted": true}, nil
		default:
			return nil, fmt.Errorf("marker queue full")
		}
	})

	// HTTP + WebSocket server. Bind before serving so port clashes are a
	// clean startup failure.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.ServerPort))
	if err != nil {
		log.Printf("failed to bind server port %d: %v", cfg.ServerPort, err)
		return exitBind
	}
	srv := fanout.NewServer(hub, mdl, rcv.Stats().Snapshot, forwardStats(fwd))
	httpServer := &http.Server{Handler: fanout.LoggingMiddleware(srv.ServeMux())}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownBudget)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			monitoring.Logf("HTTP server shutdown: %v", err)
		}
	}()

	// Ingest loop.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rcv.Run(ctx); err != nil && ctx.Err() == nil {
			monitoring.Logf("telemetry receiver stopped: %v", err)
			stop()
		}
	}()

	// Apply loop: the sole writer of the race model.
	wg.Add(1)
	go func() {
		defer wg.Done()
		applyLoop(ctx, rcv, mdl, hub, markers)
	}()

	// Reduced push payloads for the overlays ride the same cadence.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.RefreshInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if bus.ConnCount() == 0 {
					continue
				}
				snap := mdl.Snapshot()
				bus.Broadcast(overlayPayload(mdl, snap))
			}
		}
	}()

	dashboardURL := fmt.Sprintf("http://localhost:%d/", cfg.ServerPort)
	monitoring.Logf("pitwall %s (%s) up: telemetry on %s, dashboard at %s",
		version.Version, version.GitSHA, source, dashboardURL)
	if !cfg.DisableBrowserAutoload {
		openBrowser(dashboardURL)
	}

	<-ctx.Done()
	monitoring.Logf("shutting down")

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		monitoring.Logf("shutdown drain timed out")
		return exitRuntime
	}

	if w := rcv.Capture(); w != nil {
		if err := w.Close(); err != nil {
			monitoring.Logf("failed to close capture file: %v", err)
		}
	}
	monitoring.Logf("graceful shutdown complete")
	return exitOK
}

// applyLoop drains decoded packets into the model and services marker
// injections between packets. The short receive timeout keeps markers
// responsive when no telemetry is flowing.
func applyLoop(ctx context.Context, rcv *ingress.Receiver, mdl *model.Model, hub *fanout.Hub, markers <-chan string) {
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case eventType := <-markers:
			mdl.AddMarker(eventType)
			hub.Notify("custom-marker", map[string]string{"event_type": eventType})
			continue
		default:
		}

		rctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		pkt, err := rcv.Receive(rctx)
		cancel()
		if err != nil {
			continue
		}
		mdl.Apply(pkt)
	}
}

// overlayPayload is the reduced player-centric view pushed over IPC.
func overlayPayload(mdl *model.Model, snap *model.Snapshot) any {
	player := snap.Session.PlayerCarIndex
	var row model.DriverRow
	if player >= 0 && player < len(snap.Drivers) {
		row = snap.Drivers[player]
	}
	return struct {
		Session model.SessionInfo `json:"session"`
		Player  model.DriverRow   `json:"player"`
		Physics model.PhysicsView `json:"physics"`
	}{snap.Session, row, mdl.Physics()}
}

func capturePath(cfg *config.Config, now time.Time) string {
	return filepath.Join(cfg.CaptureDir, capture.Filename("", "", now))
}

// rotateCapture closes the running capture under a session-derived name and
// opens a fresh writer for whatever comes next.
func rotateCapture(cfg *config.Config, rcv *ingress.Receiver, a *model.Archive) {
	w := rcv.Capture()
	if w == nil {
		return
	}
	rcv.SetCapture(nil)
	if err := w.Close(); err != nil {
		monitoring.Logf("failed to close capture file: %v", err)
		return
	}
	named := filepath.Join(cfg.CaptureDir,
		capture.Filename(model.TrackName(a.Session.TrackID), a.Session.Type, a.ArchivedAt))
	if err := os.Rename(w.Path(), named); err != nil {
		monitoring.Logf("failed to rename capture file: %v", err)
	} else {
		monitoring.Logf("capture saved to %s (%d packets)", named, w.Count())
	}

	next, err := capture.NewWriter(capturePath(cfg, time.Now()))
	if err != nil {
		monitoring.Logf("failed to reopen capture file: %v", err)
		return
	}
	rcv.SetCapture(next)
}

func forwarderOrNil(f *forward.Forwarder) ingress.Forwarder {
	if f == nil {
		return nil
	}
	return f
}

func forwardStats(f *forward.Forwarder) func() []forward.EndpointStats {
	if f == nil {
		return nil
	}
	return f.Stats
}

// openBrowser points the default browser at the dashboard. Best effort.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		monitoring.Logf("failed to open browser: %v", err)
	}
}

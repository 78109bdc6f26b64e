package fanout

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pitwall-live/pitwall/internal/f1/forward"
	"github.com/pitwall-live/pitwall/internal/f1/ingress"
	"github.com/pitwall-live/pitwall/internal/monitoring"
)

// ANSI escape codes for request logging.
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server is the HTTP surface co-located with the WebSocket hub.
type Server struct {
	hub   *Hub
	model ModelSource

	// Optional stat providers; nil providers report empty sections.
	ingressStats func() ingress.StatsSnapshot
	forwardStats func() []forward.EndpointStats

	upgrader websocket.Upgrader
}

// NewServer wires the hub and model behind the HTTP mux. ingressStats and
// forwardStats may be nil.
func NewServer(hub *Hub, src ModelSource,
	ingressStats func() ingress.StatsSnapshot,
	forwardStats func() []forward.EndpointStats) *Server {
	return &Server{
		hub:          hub,
		model:        src,
		ingressStats: ingressStats,
		forwardStats: forwardStats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local companion tool; frontends are served from file:// and
			// localhost origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/ws", s.websocketHandler)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/race-info", s.showRaceInfo)
	mux.HandleFunc("/api/driver-info", s.showDriverInfo)
	mux.HandleFunc("/api/stats", s.showStats)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pitwall telemetry server. Connect a dashboard to /ws.\n"))
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("fanout: websocket upgrade: %v", err)
		return
	}
	go s.hub.HandleConn(conn)
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snap := s.model.Snapshot()
	if err := json.NewEncoder(w).Encode(snap.Session); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session")
	}
}

func (s *Server) showRaceInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := json.NewEncoder(w).Encode(s.model.RaceStats()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write race info")
	}
}

func (s *Server) showDriverInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'index' parameter")
		return
	}
	detail, err := s.model.DriverDetail(index)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := json.NewEncoder(w).Encode(detail); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write driver info")
	}
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	stats := map[string]any{
		"counters": s.model.Snapshot().Counters,
		"clients":  s.hub.ClientCounts(),
	}
	if s.ingressStats != nil {
		stats["ingress"] = s.ingressStats()
	}
	if s.forwardStats != nil {
		stats["forwarders"] = s.forwardStats()
	}
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write stats")
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pitwall-live/pitwall/internal/f1/model"
	"github.com/pitwall-live/pitwall/internal/monitoring"
	"github.com/pitwall-live/pitwall/internal/timeutil"
)

// defaultRequestBudget bounds request/response servicing; a blown budget
// answers with {error: "timeout"}.
const defaultRequestBudget = 3 * time.Second

// ModelSource is the read side of the race model the hub serves from.
type ModelSource interface {
	Snapshot() *model.Snapshot
	DriverDetail(index int) (model.DriverDetail, error)
	RaceStats() model.RaceStats
	Pace(n int) model.PaceComparison
	Physics() model.PhysicsView
}

// Hub owns the subscriber lists and the per-role broadcaster goroutines.
type Hub struct {
	model    ModelSource
	clock    timeutil.Clock
	interval time.Duration

	requestBudget time.Duration

	mu      sync.Mutex
	clients map[string]map[*client]struct{} // keyed by role
}

// NewHub builds a hub broadcasting from src every interval.
func NewHub(src ModelSource, clock timeutil.Clock, interval time.Duration) *Hub {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Hub{
		model:         src,
		clock:         clock,
		interval:      interval,
		requestBudget: defaultRequestBudget,
		clients:       make(map[string]map[*client]struct{}),
	}
}

// Run starts one broadcaster per role and blocks them on ctx.
func (h *Hub) Run(ctx context.Context, wg *sync.WaitGroup) {
	for _, role := range []string{RoleRaceTable, RolePlayerOverlay, RoleEngView, RoleHUDIPC} {
		wg.Add(1)
		go func(role string) {
			defer wg.Done()
			h.broadcastLoop(ctx, role)
		}(role)
	}
}

// broadcastLoop ticks at the configured cadence and pushes the role-shaped
// payload to every subscriber of that role. The sequence number is per role
// and only advances when a payload is actually built.
func (h *Hub) broadcastLoop(ctx context.Context, role string) {
	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			h.closeRole(role)
			return
		case <-ticker.C():
			subscribers := h.subscribers(role)
			if len(subscribers) == 0 {
				continue
			}
			snap := h.model.Snapshot()
			seq++
			env := &Envelope{
				Type:       updateTypeFor(role),
				Seq:        seq,
				SessionUID: snap.Session.UID,
				Data:       h.buildPayload(role, snap),
			}
			for _, c := range subscribers {
				c.enqueue(env)
			}
		}
	}
}

// buildPayload shapes the broadcast for one role from a snapshot.
func (h *Hub) buildPayload(role string, snap *model.Snapshot) any {
	switch role {
	case RoleRaceTable:
		return snap
	case RoleEngView:
		return struct {
			Snapshot *model.Snapshot `json:"snapshot" cbor:"snapshot"`
			Stats    model.RaceStats `json:"stats" cbor:"stats"`
		}{snap, h.model.RaceStats()}
	default:
		// Overlay and HUD roles get the reduced player-centric view.
		player := snap.Session.PlayerCarIndex
		var row model.DriverRow
		if player >= 0 && player < len(snap.Drivers) {
			row = snap.Drivers[player]
		}
		return struct {
			Session model.SessionInfo    `json:"session" cbor:"session"`
			Player  model.DriverRow      `json:"player" cbor:"player"`
			Pace    model.PaceComparison `json:"pace" cbor:"pace"`
			Physics model.PhysicsView    `json:"physics" cbor:"physics"`
		}{snap.Session, row, h.model.Pace(0), h.model.Physics()}
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.role]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.role] = set
	}
	set[c] = struct{}{}
	monitoring.Logf("fanout: %s client %s registered (%s framing)", c.role, c.id, c.format)
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.role]; ok {
		delete(set, c)
	}
}

func (h *Hub) subscribers(role string) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[role]
	out := make([]*client, 0, len(set))
	for c := range set {
		if !c.closed() {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) closeRole(role string) {
	for _, c := range h.subscribers(role) {
		c.close()
	}
}

// ClientCounts reports the current subscriber count per role.
func (h *Hub) ClientCounts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.clients))
	for role, set := range h.clients {
		out[role] = len(set)
	}
	return out
}

// Notify pushes a best-effort frontend-update to every connected client.
func (h *Hub) Notify(messageType string, message any) {
	env := &Envelope{
		Type: MsgFrontendUpdate,
		Data: FrontendNotice{MessageType: messageType, Message: message},
	}
	h.mu.Lock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()
	for _, c := range all {
		c.enqueue(env)
	}
}

// HandleConn drives one accepted WebSocket connection: handshake, then the
// request loop until the peer goes away.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundBytes)

	messageType, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	probe := newClient(conn, "", FormatJSON)
	if messageType == websocket.BinaryMessage {
		probe.format = FormatCBOR
	}
	var msg inboundMessage
	if err := probe.decode(messageType, data, &msg); err != nil || msg.Type != MsgRegisterClient {
		h.rejectConn(probe, "first message must be register-client")
		return
	}
	if !validRole(msg.Data.Type) {
		h.rejectConn(probe, fmt.Sprintf("unknown client type %q", msg.Data.Type))
		return
	}

	c := newClient(conn, msg.Data.Type, msg.Data.Format)
	if probe.format == FormatCBOR && msg.Data.Format == "" {
		c.format = FormatCBOR
	}
	h.addClient(c)
	go c.writePump()
	c.enqueue(&Envelope{Type: MsgRegisterAck, Data: map[string]string{"client_id": c.id, "format": c.format}})

	defer func() {
		h.removeClient(c)
		c.close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := c.decode(messageType, data, &msg); err != nil {
			c.enqueue(&Envelope{Type: MsgError, Error: "malformed message"})
			continue
		}
		switch msg.Type {
		case MsgRaceInfo, MsgDriverInfo:
			go h.serveRequest(c, msg)
		default:
			c.enqueue(&Envelope{Type: MsgError, RequestID: msg.RequestID,
				Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (h *Hub) rejectConn(c *client, reason string) {
	data, messageType, err := c.encode(&Envelope{Type: MsgError, Error: reason})
	if err == nil {
		c.conn.SetWriteDeadline(time.Now().Add(writeBudget))
		c.conn.WriteMessage(messageType, data)
	}
	c.conn.Close()
}

// serveRequest answers one on-demand request from the latest snapshot. The
// response never blocks the model writer; a blown budget yields a timeout
// response so the client is never left hanging.
func (h *Hub) serveRequest(c *client, msg inboundMessage) {
	responseType := MsgRaceInfoResponse
	if msg.Type == MsgDriverInfo {
		responseType = MsgDriverInfoResponse
	}

	results := make(chan *Envelope, 1)
	go func() {
		results <- h.buildResponse(responseType, msg)
	}()

	timer := h.clock.NewTimer(h.requestBudget)
	defer timer.Stop()
	select {
	case env := <-results:
		c.enqueue(env)
	case <-timer.C():
		c.enqueue(&Envelope{Type: responseType, RequestID: msg.RequestID, Error: "timeout"})
	}
}

func (h *Hub) buildResponse(responseType string, msg inboundMessage) *Envelope {
	env := &Envelope{Type: responseType, RequestID: msg.RequestID}
	switch msg.Type {
	case MsgRaceInfo:
		stats := h.model.RaceStats()
		env.SessionUID = stats.SessionUID
		env.Data = stats
	case MsgDriverInfo:
		detail, err := h.model.DriverDetail(msg.Data.Index)
		if err != nil {
			env.Error = err.Error()
			return env
		}
		env.SessionUID = h.model.Snapshot().Session.UID
		env.Data = detail
	}
	return env
}

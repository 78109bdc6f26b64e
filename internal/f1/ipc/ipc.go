// Package ipc is the loopback bus to HUD overlay processes. Envelopes are
// newline-delimited JSON over local TCP; three families flow: data-broadcast
// (server push), command (server to overlay), and request/response with
// correlation ids.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pitwall-live/pitwall/internal/monitoring"
	"github.com/pitwall-live/pitwall/internal/timeutil"
)

// Envelope families.
const (
	FamilyData     = "data-broadcast"
	FamilyCommand  = "command"
	FamilyRequest  = "request"
	FamilyResponse = "response"
)

// Control verbs understood on the bus.
const (
	VerbSwitchPage = "switch-page"
	VerbSetScale   = "set-scale"
	VerbPing       = "ping"
)

const (
	// defaultRequestBudget bounds a request round trip to an overlay.
	defaultRequestBudget = 3 * time.Second

	connQueueDepth = 16
	maxLineBytes   = 1 << 20
)

// ErrTimeout is returned when an overlay does not answer within the budget.
var ErrTimeout = errors.New("ipc: request timed out")

// ErrNoOverlay is returned when no overlay process is connected.
var ErrNoOverlay = errors.New("ipc: no overlay connected")

// Envelope is one line on the bus.
type Envelope struct {
	Family  string          `json:"family"`
	Verb    string          `json:"verb,omitempty"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RequestHandler services inbound overlay requests other than ping.
type RequestHandler func(verb string, payload json.RawMessage) (any, error)

// Bus accepts overlay connections and fans envelopes in both directions.
type Bus struct {
	address       string
	clock         timeutil.Clock
	requestBudget time.Duration
	handler       RequestHandler

	listener net.Listener

	mu      sync.Mutex
	conns   map[*busConn]struct{}
	pending map[string]chan Envelope
}

type busConn struct {
	conn    net.Conn
	out     chan []byte
	done    chan struct{}
	once    sync.Once
	dropped int
}

// New builds a bus that will listen on address (loopback expected).
func New(address string, clock timeutil.Clock) *Bus {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Bus{
		address:       address,
		clock:         clock,
		requestBudget: defaultRequestBudget,
		conns:         make(map[*busConn]struct{}),
		pending:       make(map[string]chan Envelope),
	}
}

// SetRequestHandler installs the handler for inbound overlay requests.
func (b *Bus) SetRequestHandler(fn RequestHandler) { b.handler = fn }

// Start binds the listener. A bind failure here is fatal for the process.
func (b *Bus) Start() error {
	l, err := net.Listen("tcp", b.address)
	if err != nil {
		return fmt.Errorf("failed to bind IPC listener on %s: %w", b.address, err)
	}
	b.listener = l
	monitoring.Logf("IPC bus listening on %s", l.Addr())
	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (b *Bus) Addr() net.Addr { return b.listener.Addr() }

// Run accepts overlay connections until ctx is cancelled.
func (b *Bus) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		b.listener.Close()
		b.closeAll()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := b.listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				monitoring.Logf("ipc: accept: %v", err)
				continue
			}
			c := &busConn{
				conn: conn,
				out:  make(chan []byte, connQueueDepth),
				done: make(chan struct{}),
			}
			b.addConn(c)
			go b.writeLoop(c)
			go b.readLoop(c)
		}
	}()
}

func (b *Bus) addConn(c *busConn) {
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	monitoring.Logf("ipc: overlay connected from %s", c.conn.RemoteAddr())
}

func (b *Bus) removeConn(c *busConn) {
	b.mu.Lock()
	delete(b.conns, c)
	b.mu.Unlock()
	c.close()
}

func (c *busConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (b *Bus) closeAll() {
	b.mu.Lock()
	conns := make([]*busConn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
}

func (b *Bus) allConns() []*busConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*busConn, 0, len(b.conns))
	for c := range b.conns {
		out = append(out, c)
	}
	return out
}

// ConnCount reports how many overlays are connected.
func (b *Bus) ConnCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func (b *Bus) writeLoop(c *busConn) {
	defer b.removeConn(c)
	for {
		select {
		case <-c.done:
			return
		case line := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			if _, err := c.conn.Write(line); err != nil {
				monitoring.Debugf("ipc: write: %v", err)
				return
			}
		}
	}
}

func (b *Bus) readLoop(c *busConn) {
	defer b.removeConn(c)
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		var env Envelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			monitoring.Debugf("ipc: malformed envelope: %v", err)
			continue
		}
		switch env.Family {
		case FamilyResponse:
			b.routeResponse(env)
		case FamilyRequest:
			b.serveInbound(c, env)
		default:
			// Overlays have no business pushing data or commands upstream.
			monitoring.Debugf("ipc: ignoring inbound %s envelope", env.Family)
		}
	}
}

func (b *Bus) routeResponse(env Envelope) {
	b.mu.Lock()
	ch, ok := b.pending[env.ID]
	if ok {
		delete(b.pending, env.ID)
	}
	b.mu.Unlock()
	if ok {
		ch <- env
	}
}

func (b *Bus) serveInbound(c *busConn, env Envelope) {
	reply := Envelope{Family: FamilyResponse, Verb: env.Verb, ID: env.ID}
	switch {
	case env.Verb == VerbPing:
		reply.Payload = json.RawMessage(`"pong"`)
	case b.handler != nil:
		result, err := b.handler(env.Verb, env.Payload)
		if err != nil {
			reply.Error = err.Error()
			break
		}
		data, err := json.Marshal(result)
		if err != nil {
			reply.Error = err.Error()
			break
		}
		reply.Payload = data
	default:
		reply.Error = fmt.Sprintf("unsupported verb %q", env.Verb)
	}
	b.sendTo(c, reply)
}

// sendTo enqueues one envelope for one connection, dropping on overflow.
func (b *Bus) sendTo(c *busConn, env Envelope) {
	line, err := json.Marshal(env)
	if err != nil {
		monitoring.Logf("ipc: encode %s: %v", env.Family, err)
		return
	}
	line = append(line, '\n')
	select {
	case c.out <- line:
	default:
		c.dropped++
		monitoring.Debugf("ipc: overlay queue full, dropped %s", env.Family)
	}
}

func (b *Bus) fanOut(env Envelope) {
	for _, c := range b.allConns() {
		b.sendTo(c, env)
	}
}

// Broadcast pushes a data payload to every connected overlay, best effort.
func (b *Bus) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		monitoring.Logf("ipc: encode broadcast: %v", err)
		return
	}
	b.fanOut(Envelope{Family: FamilyData, Payload: data})
}

// Command sends a control verb to every connected overlay.
func (b *Bus) Command(verb string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s command: %w", verb, err)
	}
	b.fanOut(Envelope{Family: FamilyCommand, Verb: verb, Payload: data})
	return nil
}

// Request sends a correlated request to the connected overlays and returns
// the first answer. Times out after the request budget.
func (b *Bus) Request(verb string, payload any) (json.RawMessage, error) {
	conns := b.allConns()
	if len(conns) == 0 {
		return nil, ErrNoOverlay
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", verb, err)
	}

	id := uuid.NewString()
	results := make(chan Envelope, 1)
	b.mu.Lock()
	b.pending[id] = results
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	env := Envelope{Family: FamilyRequest, Verb: verb, ID: id, Payload: data}
	for _, c := range conns {
		b.sendTo(c, env)
	}

	timer := b.clock.NewTimer(b.requestBudget)
	defer timer.Stop()
	select {
	case res := <-results:
		if res.Error != "" {
			return nil, fmt.Errorf("ipc: %s: %s", verb, res.Error)
		}
		return res.Payload, nil
	case <-timer.C():
		return nil, ErrTimeout
	}
}

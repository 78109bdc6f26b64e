package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-live/pitwall/internal/timeutil"
)

func startBus(t *testing.T) (*Bus, func()) {
	t.Helper()
	b := New("127.0.0.1:0", timeutil.RealClock{})
	require.NoError(t, b.Start())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	b.Run(ctx, &wg)
	return b, func() {
		cancel()
		wg.Wait()
	}
}

// overlayConn is the test stand-in for a HUD process.
type overlayConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func dialOverlay(t *testing.T, b *Bus) *overlayConn {
	t.Helper()
	conn, err := net.Dial("tcp", b.Addr().String())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return b.ConnCount() > 0 },
		2*time.Second, 10*time.Millisecond)
	return &overlayConn{conn: conn, scanner: bufio.NewScanner(conn)}
}

func (o *overlayConn) close() { o.conn.Close() }

func (o *overlayConn) read(t *testing.T) Envelope {
	t.Helper()
	o.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.True(t, o.scanner.Scan(), "expected an envelope line")
	var env Envelope
	require.NoError(t, json.Unmarshal(o.scanner.Bytes(), &env))
	return env
}

func (o *overlayConn) write(t *testing.T, env Envelope) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	_, err = o.conn.Write(append(data, '\n'))
	require.NoError(t, err)
}

func TestBroadcastReachesOverlay(t *testing.T) {
	b, stop := startBus(t)
	defer stop()

	o := dialOverlay(t, b)
	defer o.close()

	b.Broadcast(map[string]any{"session_uid": 42, "lap": 7})

	env := o.read(t)
	assert.Equal(t, FamilyData, env.Family)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, float64(42), payload["session_uid"])
}

func TestCommandFanOut(t *testing.T) {
	b, stop := startBus(t)
	defer stop()

	o := dialOverlay(t, b)
	defer o.close()

	require.NoError(t, b.Command(VerbSwitchPage, map[string]int{"page": 2}))

	env := o.read(t)
	assert.Equal(t, FamilyCommand, env.Family)
	assert.Equal(t, VerbSwitchPage, env.Verb)
}

func TestRequestResponseCorrelation(t *testing.T) {
	b, stop := startBus(t)
	defer stop()

	o := dialOverlay(t, b)
	defer o.close()

	go func() {
		env := o.read(t)
		o.write(t, Envelope{
			Family:  FamilyResponse,
			Verb:    env.Verb,
			ID:      env.ID,
			Payload: json.RawMessage(`{"page":"race-hud"}`),
		})
	}()

	payload, err := b.Request("current-page", nil)
	require.NoError(t, err)
	var result map[string]string
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, "race-hud", result["page"])
}

func TestRequestTimesOut(t *testing.T) {
	b, stop := startBus(t)
	defer stop()
	b.requestBudget = 50 * time.Millisecond

	o := dialOverlay(t, b)
	defer o.close()

	// Overlay reads the request but never answers.
	go o.read(t)

	_, err := b.Request("current-page", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRequestWithNoOverlay(t *testing.T) {
	b, stop := startBus(t)
	defer stop()

	_, err := b.Request(VerbPing, nil)
	assert.ErrorIs(t, err, ErrNoOverlay)
}

func TestInboundPing(t *testing.T) {
	b, stop := startBus(t)
	defer stop()

	o := dialOverlay(t, b)
	defer o.close()

	o.write(t, Envelope{Family: FamilyRequest, Verb: VerbPing, ID: "ping-1"})

	env := o.read(t)
	assert.Equal(t, FamilyResponse, env.Family)
	assert.Equal(t, "ping-1", env.ID)
	assert.JSONEq(t, `"pong"`, string(env.Payload))
}

func TestInboundRequestHandler(t *testing.T) {
	b, stop := startBus(t)
	defer stop()
	b.SetRequestHandler(func(verb string, payload json.RawMessage) (any, error) {
		if verb == "add-marker" {
			return map[string]bool{"ok": true}, nil
		}
		return nil, errors.New("unknown verb")
	})

	o := dialOverlay(t, b)
	defer o.close()

	o.write(t, Envelope{Family: FamilyRequest, Verb: "add-marker", ID: "m-1"})
	env := o.read(t)
	assert.Equal(t, "m-1", env.ID)
	assert.Empty(t, env.Error)
	assert.JSONEq(t, `{"ok":true}`, string(env.Payload))

	o.write(t, Envelope{Family: FamilyRequest, Verb: "nonsense", ID: "m-2"})
	env = o.read(t)
	assert.Equal(t, "m-2", env.ID)
	assert.Equal(t, "unknown verb", env.Error)
}

func TestBroadcastWithMultipleOverlays(t *testing.T) {
	b, stop := startBus(t)
	defer stop()

	first := dialOverlay(t, b)
	defer first.close()
	second := dialOverlay(t, b)
	defer second.close()
	require.Eventually(t, func() bool { return b.ConnCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		b.Broadcast(map[string]int{"seq": i})
	}
	for _, o := range []*overlayConn{first, second} {
		for i := 0; i < 3; i++ {
			env := o.read(t)
			assert.Equal(t, FamilyData, env.Family)
			var payload map[string]int
			require.NoError(t, json.Unmarshal(env.Payload, &payload))
			assert.Equal(t, i, payload["seq"])
		}
	}
}

package fanout

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pitwall-live/pitwall/internal/monitoring"
)

const (
	// clientQueueDepth bounds the outbound broadcast queue per client.
	clientQueueDepth = 8

	// maxConsecutiveDrops disconnects a client that keeps falling behind.
	maxConsecutiveDrops = 10

	// writeBudget is the per-write deadline; a blown budget marks the
	// client slow and the write is abandoned.
	writeBudget = 250 * time.Millisecond

	maxInboundBytes = 1 << 16
)

// client is one registered WebSocket subscriber.
type client struct {
	id     string
	role   string
	format string
	conn   *websocket.Conn
	queue  chan *Envelope
	done   chan struct{}

	mu        sync.Mutex
	drops     int
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, role, format string) *client {
	if format != FormatCBOR {
		format = FormatJSON
	}
	return &client{
		id:     uuid.NewString(),
		role:   role,
		format: format,
		conn:   conn,
		queue:  make(chan *Envelope, clientQueueDepth),
		done:   make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue offers an envelope to the client's outbound queue. When the queue
// is full the oldest pending message is dropped for this client only; after
// maxConsecutiveDrops in a row the client is disconnected.
func (c *client) enqueue(env *Envelope) {
	dropped := false
	for {
		if c.closed() {
			return
		}
		select {
		case c.queue <- env:
			if !dropped {
				// The writer is keeping up; the consecutive-drop streak ends.
				c.mu.Lock()
				c.drops = 0
				c.mu.Unlock()
			}
			return
		default:
		}

		select {
		case <-c.queue:
			dropped = true
			c.mu.Lock()
			c.drops++
			drops := c.drops
			c.mu.Unlock()
			if drops >= maxConsecutiveDrops {
				monitoring.Logf("fanout: disconnecting slow %s client %s after %d dropped broadcasts",
					c.role, c.id, drops)
				c.close()
				return
			}
		default:
			// Writer drained the queue between the two selects; retry.
		}
	}
}

// encode serializes an envelope in the client's negotiated framing.
func (c *client) encode(env *Envelope) ([]byte, int, error) {
	if c.format == FormatCBOR {
		data, err := cbor.Marshal(env)
		return data, websocket.BinaryMessage, err
	}
	data, err := json.Marshal(env)
	return data, websocket.TextMessage, err
}

func (c *client) decode(messageType int, data []byte, msg *inboundMessage) error {
	if messageType == websocket.BinaryMessage {
		return cbor.Unmarshal(data, msg)
	}
	return json.Unmarshal(data, msg)
}

// writePump is the single writer for the connection. At most one broadcast
// is in flight per client.
func (c *client) writePump() {
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case env := <-c.queue:
			data, messageType, err := c.encode(env)
			if err != nil {
				monitoring.Logf("fanout: encode %s for client %s: %v", env.Type, c.id, err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeBudget))
			if err := c.conn.WriteMessage(messageType, data); err != nil {
				monitoring.Debugf("fanout: write to %s client %s: %v", c.role, c.id, err)
				return
			}
		}
	}
}

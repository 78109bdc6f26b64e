// Package fanout pushes race snapshots to frontends over WebSocket and
// serves their on-demand detail requests. Clients declare a role on
// connect; each role has its own broadcaster cadence and sequence numbers.
package fanout

// Client roles accepted in the register-client handshake.
const (
	RoleRaceTable     = "race-table"
	RolePlayerOverlay = "player-stream-overlay"
	RoleEngView       = "eng-view"
	RoleHUDIPC        = "hud-ipc"
)

// Message kinds on the wire.
const (
	MsgRegisterClient      = "register-client"
	MsgRegisterAck         = "register-ack"
	MsgRaceTableUpdate     = "race-table-update"
	MsgPlayerOverlayUpdate = "player-overlay-update"
	MsgEngViewUpdate       = "eng-view-update"
	MsgRaceInfo            = "race-info"
	MsgRaceInfoResponse    = "race-info-response"
	MsgDriverInfo          = "driver-info"
	MsgDriverInfoResponse  = "driver-info-response"
	MsgFrontendUpdate      = "frontend-update"
	MsgError               = "error"
)

// Wire framings negotiated per connection.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Envelope is the outbound message frame. Broadcasts carry Seq and
// SessionUID; responses carry the RequestID they answer.
type Envelope struct {
	Type       string `json:"type" cbor:"type"`
	Seq        uint64 `json:"seq,omitempty" cbor:"seq,omitempty"`
	SessionUID uint64 `json:"session_uid,omitempty" cbor:"session_uid,omitempty"`
	RequestID  string `json:"request_id,omitempty" cbor:"request_id,omitempty"`
	Error      string `json:"error,omitempty" cbor:"error,omitempty"`
	Data       any    `json:"data,omitempty" cbor:"data,omitempty"`
}

// inboundMessage is every shape a client may send.
type inboundMessage struct {
	Type      string      `json:"type" cbor:"type"`
	RequestID string      `json:"request_id,omitempty" cbor:"request_id,omitempty"`
	Data      inboundData `json:"data,omitempty" cbor:"data,omitempty"`
}

type inboundData struct {
	Type   string `json:"type,omitempty" cbor:"type,omitempty"`
	Format string `json:"format,omitempty" cbor:"format,omitempty"`
	Index  int    `json:"index,omitempty" cbor:"index,omitempty"`
}

// FrontendNotice is the payload of a frontend-update one-shot.
type FrontendNotice struct {
	MessageType string `json:"message-type" cbor:"message-type"`
	Message     any    `json:"message" cbor:"message"`
}

func validRole(role string) bool {
	switch role {
	case RoleRaceTable, RolePlayerOverlay, RoleEngView, RoleHUDIPC:
		return true
	}
	return false
}

// updateTypeFor maps a role to its broadcast message type.
func updateTypeFor(role string) string {
	switch role {
	case RoleRaceTable:
		return MsgRaceTableUpdate
	case RoleEngView:
		return MsgEngViewUpdate
	default:
		return MsgPlayerOverlayUpdate
	}
}

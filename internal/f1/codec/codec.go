// Package codec decodes the fixed-layout little-endian UDP packets emitted by
// the F1 game titles (format years 2023-2025) into version-neutral value
// types. The decoder is driven by explicit per-format-year switches, never by
// payload length: extra trailing bytes are ignored, short payloads are an
// error.
package codec

import "fmt"

// Kind identifies a packet type. The values match the packet id byte in the
// game's packet header and are stable across the supported format years.
type Kind uint8

const (
	KindMotion              Kind = 0
	KindSession             Kind = 1
	KindLapData             Kind = 2
	KindEvent               Kind = 3
	KindParticipants        Kind = 4
	KindCarSetups           Kind = 5
	KindCarTelemetry        Kind = 6
	KindCarStatus           Kind = 7
	KindFinalClassification Kind = 8
	KindLobbyInfo           Kind = 9
	KindCarDamage           Kind = 10
	KindSessionHistory      Kind = 11
	KindTyreSets            Kind = 12
	KindMotionEx            Kind = 13
	KindTimeTrial           Kind = 14
)

func (k Kind) String() string {
	switch k {
	case KindMotion:
		return "motion"
	case KindSession:
		return "session"
	case KindLapData:
		return "lap_data"
	case KindEvent:
		return "event"
	case KindParticipants:
		return "participants"
	case KindCarSetups:
		return "car_setups"
	case KindCarTelemetry:
		return "car_telemetry"
	case KindCarStatus:
		return "car_status"
	case KindFinalClassification:
		return "final_classification"
	case KindLobbyInfo:
		return "lobby_info"
	case KindCarDamage:
		return "car_damage"
	case KindSessionHistory:
		return "session_history"
	case KindTyreSets:
		return "tyre_sets"
	case KindMotionEx:
		return "motion_ex"
	case KindTimeTrial:
		return "time_trial"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// IsPhysics reports whether the kind carries high-rate physics data that may
// be dropped first under ingress backpressure.
func (k Kind) IsPhysics() bool {
	switch k {
	case KindMotion, KindCarTelemetry, KindMotionEx:
		return true
	}
	return false
}

// Supported format years.
const (
	FormatF123 = 2023
	FormatF124 = 2024
	FormatF125 = 2025
)

// MaxCars is the number of participant slots in every per-car packet array.
const MaxCars = 22

// Packet is the tagged variant produced by Decode. Each packet kind has its
// own concrete type carrying engineering-unit fields.
type Packet interface {
	PacketHeader() Header
	Kind() Kind
}

// Decode parses a raw datagram into a typed packet. The returned errors are
// the typed codec errors (ErrShortRead, ErrUnknownPacketID,
// ErrUnsupportedFormat); none of them are fatal to the caller.
func Decode(data []byte) (Packet, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[headerLen:]
	r := newReader(body)

	var p Packet
	switch Kind(h.PacketID) {
	case KindMotion:
		p = decodeMotion(h, r)
	case KindSession:
		p = decodeSession(h, r)
	case KindLapData:
		p = decodeLapData(h, r)
	case KindEvent:
		p = decodeEvent(h, r)
	case KindParticipants:
		p = decodeParticipants(h, r)
	case KindCarSetups:
		p = decodeCarSetups(h, r)
	case KindCarTelemetry:
		p = decodeCarTelemetry(h, r)
	case KindCarStatus:
		p = decodeCarStatus(h, r)
	case KindFinalClassification:
		p = decodeFinalClassification(h, r)
	case KindLobbyInfo:
		p = decodeLobbyInfo(h, r)
	case KindCarDamage:
		p = decodeCarDamage(h, r)
	case KindSessionHistory:
		p = decodeSessionHistory(h, r)
	case KindTyreSets:
		p = decodeTyreSets(h, r)
	case KindMotionEx:
		p = decodeMotionEx(h, r)
	case KindTimeTrial:
		if h.PacketFormat < FormatF124 {
			return nil, &UnknownPacketIDError{ID: h.PacketID, Format: h.PacketFormat}
		}
		p = decodeTimeTrial(h, r)
	default:
		return nil, &UnknownPacketIDError{ID: h.PacketID, Format: h.PacketFormat}
	}

	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

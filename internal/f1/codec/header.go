package codec

// headerLen is the size of the packet header shared by format years
// 2023-2025.
const headerLen = 29

// Header is the version-stamped header at the start of every packet.
type Header struct {
	PacketFormat            uint16  // format year, e.g. 2024
	GameYear                uint8   // last two digits, e.g. 24
	GameMajorVersion        uint8
	GameMinorVersion        uint8
	PacketVersion           uint8
	PacketID                uint8
	SessionUID              uint64
	SessionTime             float32 // seconds since session start
	FrameID                 uint32  // frame the data was retrieved on
	OverallFrameID          uint32  // does not reset on flashback
	PlayerCarIndex          uint8
	SecondaryPlayerCarIndex uint8 // 255 if no second player
}

// DecodeHeader parses the 29-byte header and validates the format year.
func DecodeHeader(data []byte) (Header, error) {
	r := newReader(data)
	h := Header{
		PacketFormat: r.u16(),
	}
	if r.err != nil {
		return Header{}, r.err
	}
	switch h.PacketFormat {
	case FormatF123, FormatF124, FormatF125:
	default:
		return Header{}, &UnsupportedFormatError{Format: h.PacketFormat}
	}

	h.GameYear = r.u8()
	h.GameMajorVersion = r.u8()
	h.GameMinorVersion = r.u8()
	h.PacketVersion = r.u8()
	h.PacketID = r.u8()
	h.SessionUID = r.u64()
	h.SessionTime = r.f32()
	h.FrameID = r.u32()
	h.OverallFrameID = r.u32()
	h.PlayerCarIndex = r.u8()
	h.SecondaryPlayerCarIndex = r.u8()
	if r.err != nil {
		return Header{}, r.err
	}
	return h, nil
}

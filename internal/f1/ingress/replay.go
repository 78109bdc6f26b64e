package ingress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Replay stream framing: each datagram is sent as a little-endian uint32
// length followed by the payload. The replay server paces the stream, so no
// timestamps travel on the wire.

// maxReplayFrame bounds a frame length so a corrupt or misdialed stream
// cannot trigger a huge allocation.
const maxReplayFrame = 1 << 16

var errReplayEOF = errors.New("ingress: replay stream ended")

// ErrFrameTooLarge is returned when a replay frame length is implausible.
var ErrFrameTooLarge = errors.New("ingress: replay frame too large")

// WriteReplayFrame writes one datagram in replay framing. Used by the
// replay server tool.
func WriteReplayFrame(w io.Writer, data []byte) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readReplayFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errReplayEOF
		}
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > maxReplayFrame {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errReplayEOF
		}
		return nil, err
	}
	return data, nil
}

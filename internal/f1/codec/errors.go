package codec

import (
	"errors"
	"fmt"
)

// ErrShortRead is returned when a payload ends before the fields its format
// year promises. Trailing extra bytes are never an error; missing bytes are.
var ErrShortRead = errors.New("codec: short read")

// ShortReadError wraps ErrShortRead with position detail.
type ShortReadError struct {
	Offset int
	Want   int
	Have   int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("codec: short read at offset %d: want %d bytes, have %d", e.Offset, e.Want, e.Have)
}

func (e *ShortReadError) Unwrap() error { return ErrShortRead }

// ErrUnknownPacketID is returned when the header names a packet id the
// declared format year does not define.
var ErrUnknownPacketID = errors.New("codec: unknown packet id")

// UnknownPacketIDError carries the offending id and format year.
type UnknownPacketIDError struct {
	ID     uint8
	Format uint16
}

func (e *UnknownPacketIDError) Error() string {
	return fmt.Sprintf("codec: unknown packet id %d for format %d", e.ID, e.Format)
}

func (e *UnknownPacketIDError) Unwrap() error { return ErrUnknownPacketID }

// ErrUnsupportedFormat is returned when the header's packet format year is
// outside 2023-2025.
var ErrUnsupportedFormat = errors.New("codec: unsupported packet format")

// UnsupportedFormatError carries the offending format year.
type UnsupportedFormatError struct {
	Format uint16
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("codec: unsupported packet format %d (supported: 2023-2025)", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

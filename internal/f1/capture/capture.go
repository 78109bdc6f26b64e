// Package capture records raw telemetry datagrams to disk and reads them
// back for replay. Records are written before decoding so a capture is a
// faithful copy of what arrived on the wire, including packets the decoder
// rejects.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// FileExtension is the extension for capture files.
const FileExtension = ".f1cap"

// maxRecordLen rejects obviously corrupt length prefixes on read. Real
// telemetry datagrams are well under 2 KiB.
const maxRecordLen = 1 << 16

// Record layout, little-endian:
//
//	int64  receive timestamp, microseconds since the Unix epoch
//	uint32 payload length
//	[]byte payload
const recordHeaderLen = 12

// ErrCorruptRecord is returned by Reader when a length prefix is implausible.
var ErrCorruptRecord = errors.New("capture: corrupt record")

// Writer appends timestamped datagrams to a capture file.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	bw     *bufio.Writer
	path   string
	count  uint64
	closed bool
}

// NewWriter creates the capture file, making parent directories as needed.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create capture directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	return &Writer{f: f, bw: bufio.NewWriterSize(f, 64*1024), path: path}, nil
}

// Append writes one datagram with its receive timestamp.
func (w *Writer) Append(ts time.Time, packet []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("capture: writer is closed")
	}

	var hdr [recordHeaderLen]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(ts.UnixMicro()))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(packet)))
	if _, err := w.bw.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.bw.Write(packet); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records appended so far.
func (w *Writer) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Path returns the capture file path.
func (w *Writer) Path() string { return w.path }

// Close flushes and closes the file. Safe to call twice.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Discard closes the writer and removes the file, for captures abandoned
// before any session data arrived.
func (w *Writer) Discard() error {
	if err := w.Close(); err != nil {
		return err
	}
	return os.Remove(w.path)
}

// Record is one replayed datagram.
type Record struct {
	Timestamp time.Time
	Data      []byte
}

// Reader iterates over a capture file in write order.
type Reader struct {
	f  *os.File
	br *bufio.Reader
}

// NewReader opens a capture file for replay.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, br: bufio.NewReaderSize(f, 64 * 1024)}, nil
}

// Next returns the next record, or io.EOF at the end of the capture.
func (r *Reader) Next() (Record, error) {
	var hdr [recordHeaderLen]byte
	if _, err := io.ReadFull(r.br, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// A truncated trailer is normal after a crash mid-write.
			return Record{}, io.EOF
		}
		return Record{}, err
	}

	ts := int64(binary.LittleEndian.Uint64(hdr[0:8]))
	n := binary.LittleEndian.Uint32(hdr[8:12])
	if n > maxRecordLen {
		return Record{}, fmt.Errorf("%w: length %d", ErrCorruptRecord, n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r.br, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, io.EOF
		}
		return Record{}, err
	}
	return Record{Timestamp: time.UnixMicro(ts), Data: data}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Filename builds a capture filename from the session identity, e.g.
// "silverstone_race_20260824-154500.f1cap".
func Filename(track, sessionType string, start time.Time) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = filenameUnsafe.ReplaceAllString(s, "_")
		if s == "" {
			s = "unknown"
		}
		return s
	}
	return fmt.Sprintf("%s_%s_%s%s",
		clean(track), clean(sessionType), start.Format("20060102-150405"), FileExtension)
}

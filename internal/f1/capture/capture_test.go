package capture

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session"+FileExtension)

	w, err := NewWriter(path)
	require.NoError(t, err)

	t0 := time.UnixMicro(1_756_000_000_000_000)
	packets := [][]byte{
		{0xE7, 0x07, 0x17},
		{0xE8, 0x07, 0x18, 0x01},
		{0xE9},
	}
	for i, p := range packets {
		require.NoError(t, w.Append(t0.Add(time.Duration(i)*time.Second), p))
	}
	assert.Equal(t, uint64(3), w.Count())
	require.NoError(t, w.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	for i, want := range packets {
		rec, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, rec.Data)
		assert.Equal(t, t0.Add(time.Duration(i)*time.Second), rec.Timestamp)
	}
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestWriterClosedTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x"+FileExtension)
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Error(t, w.Append(time.Now(), []byte{1}))
}

func TestWriterDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty"+FileExtension)
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Discard())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReaderTruncatedTrailer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc"+FileExtension)
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(time.Now(), []byte{1, 2, 3}))
	require.NoError(t, w.Close())

	// Chop the last byte off, as a crash mid-write would.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-1], 0o644))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderCorruptLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt"+FileExtension)

	var hdr [recordHeaderLen]byte
	binary.LittleEndian.PutUint64(hdr[0:8], 0)
	binary.LittleEndian.PutUint32(hdr[8:12], maxRecordLen+1)
	require.NoError(t, os.WriteFile(path, hdr[:], 0o644))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestFilename(t *testing.T) {
	start := time.Date(2026, 8, 24, 15, 45, 0, 0, time.UTC)
	assert.Equal(t, "silverstone_race_20260824-154500.f1cap", Filename("Silverstone", "Race", start))
	assert.Equal(t, "spa-francorchamps_qualifying_1_20260824-154500.f1cap",
		Filename("Spa-Francorchamps", "qualifying 1", start))
	assert.Equal(t, "unknown_unknown_20260824-154500.f1cap", Filename("", "  ", start))
}

package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderLatchesFirstShortRead(t *testing.T) {
	r := newReader([]byte{0x01, 0x02})

	assert.Equal(t, uint16(0x0201), r.u16())
	require.NoError(t, r.err)

	// First failing read latches the error with its position.
	assert.Zero(t, r.u32())
	require.Error(t, r.err)
	var sre *ShortReadError
	require.True(t, errors.As(r.err, &sre))
	assert.Equal(t, 2, sre.Offset)
	assert.Equal(t, 4, sre.Want)
	assert.Equal(t, 0, sre.Have)

	// Subsequent reads keep returning zero without replacing the error.
	assert.Zero(t, r.u8())
	assert.Zero(t, r.f32())
	assert.Same(t, sre, r.err.(*ShortReadError))
}

func TestReaderFloatSanitation(t *testing.T) {
	var b builder
	b.f32(float32(math.NaN()))
	b.f32(float32(math.Inf(1)))
	b.f32(float32(math.Inf(-1)))
	b.f32(3.5)
	b.f64(math.NaN())
	b.f64(2.25)

	r := newReader(b.buf)
	assert.Zero(t, r.f32())
	assert.Zero(t, r.f32())
	assert.Zero(t, r.f32())
	assert.Equal(t, float32(3.5), r.f32())
	assert.Zero(t, r.f64())
	assert.Equal(t, 2.25, r.f64())
	assert.NoError(t, r.err)
}

func TestReaderString(t *testing.T) {
	t.Run("trims at first NUL", func(t *testing.T) {
		r := newReader([]byte("VERSTAPPEN\x00\x00garbage\x00"))
		assert.Equal(t, "VERSTAPPEN", r.str(18))
	})

	t.Run("keeps valid UTF-8", func(t *testing.T) {
		field := make([]byte, 16)
		copy(field, "PÉREZ")
		r := newReader(field)
		assert.Equal(t, "PÉREZ", r.str(16))
	})

	t.Run("falls back to Latin-1 for invalid UTF-8", func(t *testing.T) {
		// 0xC9 alone is invalid UTF-8 but is É in Latin-1.
		field := make([]byte, 8)
		copy(field, []byte{'P', 0xC9, 'R', 'E', 'Z'})
		r := newReader(field)
		assert.Equal(t, "PÉREZ", r.str(8))
	})

	t.Run("short field latches error", func(t *testing.T) {
		r := newReader([]byte("AB"))
		assert.Empty(t, r.str(4))
		assert.True(t, errors.Is(r.err, ErrShortRead))
	})
}

func TestReaderSkip(t *testing.T) {
	r := newReader([]byte{1, 2, 3, 4, 5})
	r.skip(3)
	assert.Equal(t, uint8(4), r.u8())
	r.skip(5)
	assert.True(t, errors.Is(r.err, ErrShortRead))
}

package stream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Ints(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01, 0x02, 0x03, 0xff})

	assert.Equal(t, uint64(0x0001), r.ReadInt(2))
	assert.Equal(t, uint64(0x0203ff), r.ReadInt(3))
	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, uint64(0), r.ReadInt(4), "reads past EOF come back short")
}

func TestReader_PeekDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2}, r.Peek(2))
	assert.Equal(t, []byte{1, 2, 3}, r.Peek(16))
	assert.Equal(t, 0, r.Offset)
}

func TestReader_Strings(t *testing.T) {
	r := NewReader([]byte{0x00, 0x03, 'a', 'b', 'c', 'x', 0x00, 'y'})

	assert.Equal(t, []byte("abc"), r.ReadNSizedString(2))
	assert.Equal(t, []byte("x"), r.ReadSzString())
	assert.Equal(t, []byte("y"), r.ReadSzString(), "missing terminator returns the rest")
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_Floats(t *testing.T) {
	r := NewReader([]byte{
		0x3f, 0x80, 0x00, 0x00, // 1.0f
		0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18, // pi
	})
	assert.Equal(t, float32(1.0), r.ReadFloat32())
	assert.InDelta(t, 3.141592653589793, r.ReadFloat64(), 1e-15)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xde, 0xad}, 0644))

	r, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdead), r.ReadInt(2))

	_, err = FromFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReader_Hexdump(t *testing.T) {
	r := NewReader([]byte("ABCDEFGHIJKLMNOPqr"))
	dump := r.Hexdump(18)
	assert.Contains(t, dump, "ABCDEFGHIJKLMNOP")
	assert.Contains(t, dump, "41424344")
	assert.Contains(t, dump, "qr")
	assert.Equal(t, 0, r.Offset, "hexdump peeks only")
}

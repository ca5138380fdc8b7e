// Package stream provides a big-endian cursor over an in-memory byte
// slice, shared by the RPX and NBT readers.
package stream

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Reader walks a byte slice front to back.  All multi-byte reads are
// big-endian, matching the Wii U's PowerPC layout.
type Reader struct {
	Data   []byte
	Offset int
}

func NewReader(data []byte) *Reader {
	return &Reader{Data: data}
}

func FromFile(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewReader(data), nil
}

// Remaining reports how many bytes are left to read
func (r *Reader) Remaining() int {
	return len(r.Data) - r.Offset
}

// Peek returns up to n bytes without advancing
func (r *Reader) Peek(n int) []byte {
	end := r.Offset + n
	if end > len(r.Data) {
		end = len(r.Data)
	}
	return r.Data[r.Offset:end]
}

// Read takes up to n bytes and advances past them
func (r *Reader) Read(n int) []byte {
	ret := r.Peek(n)
	r.Offset += len(ret)
	return ret
}

// ReadInt reads a size-byte big-endian unsigned integer
func (r *Reader) ReadInt(size int) uint64 {
	var ret uint64
	for _, b := range r.Read(size) {
		ret = ret<<8 | uint64(b)
	}
	return ret
}

// ReadNSizedString reads an n-byte length followed by that many bytes
func (r *Reader) ReadNSizedString(n int) []byte {
	return r.Read(int(r.ReadInt(n)))
}

// ReadSzString reads up to the next NUL byte, consuming it.  Without
// a terminator the rest of the buffer is returned.
func (r *Reader) ReadSzString() []byte {
	start := r.Offset
	end := start
	for end < len(r.Data) && r.Data[end] != 0 {
		end++
	}
	r.Offset = end + 1
	if r.Offset > len(r.Data) {
		r.Offset = len(r.Data)
	}
	return r.Data[start:end]
}

func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(uint32(r.ReadInt(4)))
}

func (r *Reader) ReadFloat64() float64 {
	return math.Float64frombits(r.ReadInt(8))
}

// Hexdump renders up to length bytes at the cursor, 16 per row with
// an ASCII gutter
func (r *Reader) Hexdump(length int) string {
	var b strings.Builder
	data := r.Peek(length)
	for i := 0; i < len(data); i += 16 {
		row := data[i:]
		if len(row) > 16 {
			row = row[:16]
		}
		fmt.Fprintf(&b, "%08x: ", r.Offset+i)
		for j := 0; j < 16; j++ {
			if j < len(row) {
				fmt.Fprintf(&b, "%02x", row[j])
			} else {
				b.WriteString("  ")
			}
			if j%4 == 3 {
				b.WriteByte(' ')
			}
		}
		for _, ch := range row {
			if ch >= 0x20 && ch < 0x7f {
				b.WriteByte(ch)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

package ghsdemangle

import (
	"fmt"
	"math"
	"strings"
)

// Cursor keeps the state necessary to scan a mangled symbol: the
// source string it started from and the remainder still to be
// consumed.  The source is retained for error messages only.
type Cursor struct {
	src       string
	remainder string
}

func NewCursor(src string) *Cursor {
	return &Cursor{src: src, remainder: src}
}

// SetInput replaces both the source and the remainder
func (c *Cursor) SetInput(src string) {
	c.src = src
	c.remainder = src
}

// HasData reports whether there is anything left to consume
func (c *Cursor) HasData() bool { return len(c.remainder) > 0 }

// Remainder returns the unconsumed tail of the input
func (c *Cursor) Remainder() string { return c.remainder }

// Peek returns up to n characters without advancing.  The slice is
// short when fewer than n characters remain.
func (c *Cursor) Peek(n int) string {
	if n > len(c.remainder) {
		n = len(c.remainder)
	}
	return c.remainder[:n]
}

// StartsWith reports whether the remainder starts with s, without
// advancing
func (c *Cursor) StartsWith(s string) bool {
	return strings.HasPrefix(c.remainder, s)
}

// Consume advances past s iff the remainder starts with it
func (c *Cursor) Consume(s string) bool {
	if !strings.HasPrefix(c.remainder, s) {
		return false
	}
	c.remainder = c.remainder[len(s):]
	return true
}

// Skip advances by n characters.  It reports false, without moving,
// when fewer than n remain.
func (c *Cursor) Skip(n int) bool {
	if len(c.remainder) < n {
		return false
	}
	c.remainder = c.remainder[n:]
	return true
}

// Read takes up to n characters off the front of the remainder
func (c *Cursor) Read(n int) string {
	if n > len(c.remainder) {
		n = len(c.remainder)
	}
	ret := c.remainder[:n]
	c.remainder = c.remainder[n:]
	return ret
}

// Expect asserts that the remainder starts with s and consumes it
func (c *Cursor) Expect(s string) error {
	if !c.Consume(s) {
		return c.Errorf("expected %q", s)
	}
	return nil
}

// ReadInt reads a maximal run of decimal digits and parses it.  At
// least one digit is required.
func (c *Cursor) ReadInt() (int, error) {
	j := 0
	for j < len(c.remainder) && isDigit(c.remainder[j]) {
		j++
	}
	if j == 0 {
		return 0, c.Errorf("expected a decimal integer")
	}
	n := 0
	for _, ch := range []byte(c.Read(j)) {
		if n > (math.MaxInt-int(ch-'0'))/10 {
			return 0, c.Errorf("decimal integer out of range")
		}
		n = n*10 + int(ch-'0')
	}
	return n, nil
}

// ReadLengthString reads a decimal length followed by that many
// characters.  Running past the end of the input is an error.
func (c *Cursor) ReadLengthString() (string, error) {
	n, err := c.ReadInt()
	if err != nil {
		return "", err
	}
	if n > len(c.remainder) {
		return "", c.Errorf("length-prefixed string of %d bytes runs past the end", n)
	}
	return c.Read(n), nil
}

// ReadUntil accumulates characters until stop fires or the input runs
// out.  The stop predicate may itself consume the terminator.
func (c *Cursor) ReadUntil(stop func(*Cursor) bool) string {
	var b strings.Builder
	for {
		if stop(c) {
			break
		}
		if !c.HasData() {
			break
		}
		b.WriteString(c.Read(1))
	}
	return b.String()
}

// StartsWithDigit reports whether the next character is a decimal digit
func (c *Cursor) StartsWithDigit() bool {
	return len(c.remainder) > 0 && isDigit(c.remainder[0])
}

// Errorf builds a ParseError pointing at the current position
func (c *Cursor) Errorf(format string, args ...any) error {
	return &ParseError{
		Message:   fmt.Sprintf(format, args...),
		Source:    c.src,
		Remainder: c.remainder,
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

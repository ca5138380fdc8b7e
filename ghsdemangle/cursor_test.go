package ghsdemangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_Basics(t *testing.T) {
	c := NewCursor("3Foo")

	assert.Equal(t, "3F", c.Peek(2))
	assert.Equal(t, "3Foo", c.Peek(10), "peek is short at EOF")
	assert.True(t, c.HasData())

	assert.False(t, c.Consume("Foo"))
	assert.Equal(t, "3Foo", c.Remainder(), "failed consume doesn't advance")
	assert.True(t, c.Consume("3"))
	assert.Equal(t, "Foo", c.Remainder())

	assert.False(t, c.Skip(10))
	assert.True(t, c.Skip(1))
	assert.Equal(t, "oo", c.Read(5), "read is short at EOF")
	assert.False(t, c.HasData())
}

func TestCursor_ReadInt(t *testing.T) {
	c := NewCursor("128abc")
	n, err := c.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, 128, n)
	assert.Equal(t, "abc", c.Remainder())

	_, err = c.ReadInt()
	assert.Error(t, err, "at least one digit is required")
}

func TestCursor_ReadLengthString(t *testing.T) {
	c := NewCursor("3FooFv")
	s, err := c.ReadLengthString()
	require.NoError(t, err)
	assert.Equal(t, "Foo", s)
	assert.Equal(t, "Fv", c.Remainder())

	c = NewCursor("9Foo")
	_, err = c.ReadLengthString()
	require.Error(t, err, "length runs past EOF")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "9Foo", parseErr.Source)
}

func TestCursor_ReadUntil(t *testing.T) {
	c := NewCursor("foo__3Bar")
	got := c.ReadUntil(func(c *Cursor) bool { return c.Consume("__") })
	assert.Equal(t, "foo", got)
	assert.Equal(t, "3Bar", c.Remainder(), "the stop predicate consumed the separator")

	c = NewCursor("abc")
	got = c.ReadUntil(func(*Cursor) bool { return false })
	assert.Equal(t, "abc", got, "stops at EOF")
}

func TestCursor_Expect(t *testing.T) {
	c := NewCursor("Q2_")
	require.NoError(t, c.Expect("Q"))
	assert.Error(t, c.Expect("X"))
	assert.Equal(t, "2_", c.Remainder())
}

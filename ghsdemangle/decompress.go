package ghsdemangle

import (
	"log"
	"strconv"
	"strings"
)

const thunkPrefix = "__ghs_thunk__"

// thunkOffsetLen is the length of the inline hex offset that follows
// the thunk marker, e.g. `0xffffff70__`.
const thunkOffsetLen = len("0xffffff70__")

// Decompress undoes the two envelopes GHS may wrap a symbol in: a
// `__ghs_thunk__<hex>__` prefix, which is stripped, and a
// `__CPR<size>__` back-reference compression, which is expanded.
// Symbols carrying neither come back unchanged.
func Decompress(src string) (string, error) {
	c := NewCursor(src)
	if c.Consume(thunkPrefix) {
		c.Skip(thunkOffsetLen)
	}
	if c.Consume("__CPR") {
		return expandCPR(c)
	}
	return c.Remainder(), nil
}

// expandCPR expands the token stream following a `__CPR` marker.  The
// compressed body is a `J`-separated token list: even tokens are
// literal, odd tokens are decimal byte offsets into the output
// produced so far, from which one length-prefixed name is copied.  An
// empty odd token stands for a literal `J`.  The output is a single
// append-only buffer so that later references can point into text
// spliced in by earlier ones.
func expandCPR(c *Cursor) (string, error) {
	declaredSize, err := c.ReadInt()
	if err != nil {
		return "", err
	}
	if err := c.Expect("__"); err != nil {
		return "", err
	}

	var out strings.Builder
	for i, tok := range strings.Split(c.Remainder(), "J") {
		if i%2 == 1 && tok != "" {
			offset, err := strconv.Atoi(tok)
			if err != nil {
				return "", c.Errorf("bad back-reference offset %q", tok)
			}
			if offset < 0 || offset > out.Len() {
				return "", c.Errorf("back-reference offset %d outside the %d bytes expanded so far", offset, out.Len())
			}
			ref := NewCursor(out.String()[offset:])
			name, err := ref.ReadLengthString()
			if err != nil {
				return "", err
			}
			tok = strconv.Itoa(len(name)) + name
		} else if i%2 == 1 {
			tok = "J"
		}
		out.WriteString(tok)
	}

	if out.Len() != declaredSize {
		log.Printf("[WARN] ghsdemangle: decompressed size mismatch: declared %d, got %d", declaredSize, out.Len())
	}
	return out.String(), nil
}

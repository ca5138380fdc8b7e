package ghsdemangle

import "fmt"

// ParseError is the error raised when a symbol doesn't follow the GHS
// mangling grammar.  It carries the full source string and the
// remainder the cursor was looking at when the parse gave up.
type ParseError struct {
	Message   string
	Source    string
	Remainder string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %q in %q", e.Message, e.Remainder, e.Source)
}

// Package nbt reads the NBT tag trees Minecraft ships inside its Wii
// U save data.  All integers are big-endian.
package nbt

import (
	"fmt"
	"strings"

	"github.com/syoch/lib-wii-u-format/stream"
)

// Tag opcodes
const (
	opEnd       = 0x00
	opByte      = 0x01
	opShort     = 0x02
	opInt       = 0x03
	opLong      = 0x04
	opFloat     = 0x05
	opDouble    = 0x06
	opByteArray = 0x07
	opString    = 0x08
	opList      = 0x09
	opCompound  = 0x0a
)

// Tag is one node of the tree.  Compound and List tags hold children.
type Tag interface {
	TagName() string
	String() string
}

type EndTag struct{}

func (EndTag) TagName() string { return "" }
func (EndTag) String() string  { return "End" }

// IntTag covers the Byte, Short, Int and Long opcodes; Width is the
// payload size in bytes.
type IntTag struct {
	Name  string
	Width int
	Value uint64
}

func (t IntTag) TagName() string { return t.Name }
func (t IntTag) String() string  { return fmt.Sprintf("%s: %d", t.Name, t.Value) }

type FloatTag struct {
	Name  string
	Value float32
}

func (t FloatTag) TagName() string { return t.Name }
func (t FloatTag) String() string  { return fmt.Sprintf("%s: %v", t.Name, t.Value) }

type DoubleTag struct {
	Name  string
	Value float64
}

func (t DoubleTag) TagName() string { return t.Name }
func (t DoubleTag) String() string  { return fmt.Sprintf("%s: %v", t.Name, t.Value) }

type StringTag struct {
	Name  string
	Value string
}

func (t StringTag) TagName() string { return t.Name }
func (t StringTag) String() string  { return fmt.Sprintf("%s: %s", t.Name, t.Value) }

type ByteArrayTag struct {
	Name string
	Data []byte
}

func (t ByteArrayTag) TagName() string { return t.Name }
func (t ByteArrayTag) String() string  { return fmt.Sprintf("ByteArray: %v", t.Data) }

type ListTag struct {
	Name  string
	Items []Tag
}

func (t ListTag) TagName() string { return t.Name }
func (t ListTag) String() string {
	lines := []string{fmt.Sprintf("List %s(%d):", t.Name, len(t.Items))}
	for _, item := range t.Items {
		lines = append(lines, indent(item.String())...)
	}
	return strings.Join(lines, "\n")
}

type CompoundTag struct {
	Name  string
	Items []Tag
}

func (t CompoundTag) TagName() string { return t.Name }
func (t CompoundTag) String() string {
	lines := []string{fmt.Sprintf("Compound %s:", t.Name)}
	for _, item := range t.Items {
		lines = append(lines, indent(item.String())...)
	}
	return strings.Join(lines, "\n")
}

func indent(s string) []string {
	var ret []string
	for _, line := range strings.Split(s, "\n") {
		ret = append(ret, "  "+line)
	}
	return ret
}

// Reader decodes tags off a big-endian stream
type Reader struct {
	*stream.Reader
}

func NewReader(data []byte) *Reader {
	return &Reader{Reader: stream.NewReader(data)}
}

// ReadTag reads the next tag, including its opcode and name
func (r *Reader) ReadTag() (Tag, error) {
	return r.readTag(0, nil)
}

// readTag reads one tag.  List elements pass the shared opcode and an
// empty name, since elements carry neither.
func (r *Reader) readTag(opcode byte, name *string) (Tag, error) {
	if opcode == 0 {
		opcode = byte(r.ReadInt(1))
	}
	if opcode == opEnd {
		return EndTag{}, nil
	}

	var tagName string
	if name == nil {
		tagName = string(r.ReadNSizedString(2))
	} else {
		tagName = *name
	}

	switch {
	case opcode >= opByte && opcode <= opLong:
		width := 1 << (opcode - 1)
		return IntTag{Name: tagName, Width: width, Value: r.ReadInt(width)}, nil
	case opcode == opFloat:
		return FloatTag{Name: tagName, Value: r.ReadFloat32()}, nil
	case opcode == opDouble:
		return DoubleTag{Name: tagName, Value: r.ReadFloat64()}, nil
	case opcode == opByteArray:
		return ByteArrayTag{Name: tagName, Data: r.Read(int(r.ReadInt(4)))}, nil
	case opcode == opString:
		return StringTag{Name: tagName, Value: string(r.ReadNSizedString(2))}, nil
	case opcode == opList:
		return r.readList(tagName)
	case opcode == opCompound:
		return r.readCompound(tagName)
	}
	return nil, fmt.Errorf("nbt: unknown opcode 0x%02x", opcode)
}

func (r *Reader) readList(name string) (Tag, error) {
	elemOpcode := byte(r.ReadInt(1))
	count := int(r.ReadInt(4))

	ret := ListTag{Name: name}
	empty := ""
	for i := 0; i < count; i++ {
		if r.Remaining() == 0 {
			return nil, fmt.Errorf("nbt: list %q truncated at element %d of %d", name, i, count)
		}
		item, err := r.readTag(elemOpcode, &empty)
		if err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, item)
	}
	return ret, nil
}

func (r *Reader) readCompound(name string) (Tag, error) {
	ret := CompoundTag{Name: name}
	for {
		if r.Remaining() == 0 {
			return nil, fmt.Errorf("nbt: compound %q has no End tag", name)
		}
		if r.Peek(1)[0] == opEnd {
			r.Read(1)
			return ret, nil
		}
		item, err := r.ReadTag()
		if err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, item)
	}
}

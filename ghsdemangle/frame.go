package ghsdemangle

import (
	"encoding/binary"

	"github.com/samber/lo"
)

var appendU16 = binary.BigEndian.AppendUint16

// EncodeFrame serializes a parsed function to the length-prefixed
// record consumed over the child-process pipe.  Layout, all
// multi-byte fields big-endian:
//
//	u8  is_static
//	u16 count { u16 len; bytes }   qualified name segments
//	u16 count { u16 len; bytes }   argument types, rendered
//	u16 len; bytes                 return type, rendered
//
// The frame is self-delimiting, so consecutive frames need no
// separator.
func EncodeFrame(f *Function) []byte {
	var buf []byte
	if f.IsStatic {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	qualified := lo.Map(f.Name.Namespace.Path, func(n Name, _ int) string {
		return n.String()
	})
	qualified = append(qualified, f.Name.TailString())
	buf = appendStringList(buf, qualified)

	buf = appendStringList(buf, lo.Map(f.Args, func(t Type, _ int) string {
		return t.String()
	}))

	return appendString(buf, f.ReturnType.String())
}

func appendString(buf []byte, s string) []byte {
	buf = appendU16(buf, uint16(len(s)))
	return append(buf, s...)
}

func appendStringList(buf []byte, list []string) []byte {
	buf = appendU16(buf, uint16(len(list)))
	for _, s := range list {
		buf = appendString(buf, s)
	}
	return buf
}

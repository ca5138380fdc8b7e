package ghsdemangle

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Name is a single identifier: the literal name, the namespace path
// qualifying it, and its template arguments.  The name may be empty
// for synthetic anchors such as the class-self slot of a constructor.
type Name struct {
	Name      string
	Namespace Namespace
	Template  []Type
}

func NameFromString(name string) Name {
	return Name{Name: name}
}

func (n Name) String() string {
	ret := n.TailString()
	if len(n.Namespace.Path) > 0 {
		ret = n.Namespace.String() + "::" + ret
	}
	return ret
}

// TailString renders the name without its namespace qualification
func (n Name) TailString() string {
	ret := n.Name
	if len(n.Template) > 0 {
		ret += "<" + joinTypes(n.Template) + ">"
	}
	return ret
}

// ToType wraps the name into an undecorated Type
func (n Name) ToType() Type {
	t := newType()
	t.Basetype = n
	return t
}

// Namespace is an ordered path of names, `A::B::C`.  An empty path is
// the global namespace.
type Namespace struct {
	Path []Name
}

func (ns Namespace) String() string {
	return strings.Join(lo.Map(ns.Path, func(n Name, _ int) string {
		return n.String()
	}), "::")
}

// Type is a basetype plus decorator lists.  Prefixes go on the left,
// suffixes on the right, both in the order they were consumed from
// the mangling.  Arguments is non-empty only for function types, and
// Length greater than one marks an array.
type Type struct {
	Prefixes  []string
	Suffixes  []string
	Basetype  Name
	Arguments []Type
	Length    int
}

func newType() Type {
	return Type{Length: 1}
}

// IsValid reports whether the type carries a basetype.  Return slots
// stay invalid when the mangling has no `_` return marker.
func (t Type) IsValid() bool {
	return t.Basetype.Name != ""
}

func (t Type) String() string {
	ret := t.Basetype.String()
	if len(t.Suffixes) > 0 {
		ret += " " + strings.Join(t.Suffixes, " ")
	}
	if len(t.Prefixes) > 0 {
		ret = strings.Join(t.Prefixes, " ") + " " + ret
	}
	if len(t.Arguments) > 0 {
		ret += "(*)(" + joinTypes(t.Arguments) + ")"
	}
	if t.Length > 1 {
		ret += fmt.Sprintf("[%d]", t.Length)
	}
	return ret
}

// Function is a fully parsed declaration.  Kind is the operator or
// ctor/dtor tag; a `#` inside it stands for the innermost namespace
// segment and is substituted at print time.
type Function struct {
	Name       Name
	Args       []Type
	ReturnType Type
	Kind       string
	IsStatic   bool
}

func (f *Function) String() string {
	ret := f.Name.String()
	if f.Kind != "" {
		self := "auto"
		if n := len(f.Name.Namespace.Path); n != 0 {
			self = f.Name.Namespace.Path[n-1].Name
		}
		ret += strings.ReplaceAll(f.Kind, "#", self)
	}

	ret += "(" + joinTypes(f.Args) + ")"

	if f.ReturnType.IsValid() {
		ret = f.ReturnType.String() + " " + ret
	}
	if f.IsStatic {
		ret = "static " + ret
	}
	return ret
}

// ToType projects the function to a function-typed Type, keeping its
// argument list
func (f *Function) ToType() Type {
	ret := f.ReturnType
	if ret.Length == 0 {
		ret.Length = 1
	}
	ret.Arguments = f.Args
	return ret
}

func joinTypes(ts []Type) string {
	return strings.Join(lo.Map(ts, func(t Type, _ int) string {
		return t.String()
	}), ", ")
}

package ghsdemangle

import (
	"log"
	"strings"
)

// namePrefixes maps the leading operator/ctor/dtor markers to the
// Kind tag.  Matching is first-match in table order, so compound
// forms sit before the shorter markers they embed (`__aad` before
// `__aa`, `__adv` before `__ad`).
var namePrefixes = []struct {
	prefix string
	kind   string
}{
	{"__vtbl", " virtual table"},
	{"__ct", "#"},
	{"__dt", "~#"},
	{"__as", "operator="},
	{"__eq", "operator=="},
	{"__ne", "operator!="},
	{"__gt", "operator>"},
	{"__lt", "operator<"},
	{"__ge", "operator>="},
	{"__le", "operator<="},
	{"__pp", "operator++"},
	{"__pl", "operator+"},
	{"__apl", "operator+="},
	{"__mi", "operator-"},
	{"__ami", "operator-="},
	{"__ml", "operator*"},
	{"__amu", "operator*="},
	{"__dv", "operator/"},
	{"__adv", "operator/="},
	{"__nw", "operator new"},
	{"__dl", "operator delete"},
	{"__vn", "operator new[]"},
	{"__vd", "operator delete[]"},
	{"__md", "operator%"},
	{"__amd", "operator%="},
	{"__mm", "operator--"},
	{"__aad", "operator&="},
	{"__aa", "operator&&"},
	{"__oo", "operator||"},
	{"__aor", "operator|="},
	{"__or", "operator|"},
	{"__aer", "operator^="},
	{"__er", "operator^"},
	{"__ad", "operator&"},
	{"__co", "operator~"},
	{"__cl", "operator"},
	{"__als", "operator<<="},
	{"__ls", "operator<<"},
	{"__ars", "operator>>="},
	{"__rs", "operator>>"},
	{"__rf", "operator->"},
	{"__vc", "operator[]"},
}

var basetypes = map[byte]string{
	'v': "void",
	'i': "int",
	's': "short",
	'c': "char",
	'w': "wchar_t",
	'b': "bool",
	'f': "float",
	'd': "double",
	'l': "long",
	'L': "long long",
	'e': "...",
	'r': "long double",
}

var typePrefixes = map[byte]string{
	'U': "unsigned",
	'S': "signed",
	'J': "__complex",
	'M': "[M]",
}

var typeSuffixes = map[byte]string{
	'P': "*",
	'R': "&",
	'C': "const",
	'V': "volatile",
	'u': "restrict",
}

// Demangler parses GHS-mangled C++ symbols.  A single instance can be
// reused across symbols but not shared between goroutines.
type Demangler struct {
	cursor    *Cursor
	templates [][]Type
}

func NewDemangler() *Demangler {
	return &Demangler{}
}

// Demangle parses one mangled symbol into a Function.  Any grammar
// violation comes back as a *ParseError; nothing in here panics.
func (d *Demangler) Demangle(src string) (*Function, error) {
	expanded, err := Decompress(src)
	if err != nil {
		return nil, err
	}
	d.cursor = NewCursor(expanded)
	d.templates = d.templates[:0]
	return d.readFunction()
}

// Demangle is the one-shot library entry point: the structured
// function on success, or a nil function and the parse error when the
// symbol is malformed or uses an unrecognized dialect.  BestEffort
// falls back to the original string instead.
func Demangle(src string) (*Function, error) {
	return NewDemangler().Demangle(src)
}

// BestEffort demangles src and renders it, falling back to the raw
// input on failure
func BestEffort(src string) string {
	fn, err := Demangle(src)
	if err != nil {
		return src
	}
	return fn.String()
}

func (d *Demangler) readFunction() (*Function, error) {
	ret := &Function{}
	d.readNamePrefix(ret)

	ret.Name.Name = d.cursor.ReadUntil(stopAtTail)
	if !d.cursor.HasData() {
		// plain global function with no structured tail
		return ret, nil
	}

	if d.cursor.StartsWith("tm__") {
		tmpl, err := d.readTemplate()
		if err != nil {
			return nil, err
		}
		ret.Name.Template = tmpl
	}

	// GHS appends version/hash tags between the name and the
	// namespace/function info; skip anything that can't start the
	// structured tail
	for d.cursor.HasData() {
		ch := d.cursor.Peek(1)[0]
		if ch == 'Q' || ch == 'F' || isDigit(ch) {
			break
		}
		log.Printf("[DEBUG] ghsdemangle: skipping junk character %q", ch)
		d.cursor.Skip(1)
	}

	if d.cursor.StartsWith("Q") {
		ns, err := d.readNamespace()
		if err != nil {
			return nil, err
		}
		ret.Name.Namespace = ns
	} else if d.cursor.StartsWithDigit() {
		owner, err := d.readLengthName()
		if err != nil {
			return nil, err
		}
		ret.Name.Namespace.Path = append(ret.Name.Namespace.Path, owner)
	}

	d.cursor.Consume("C")
	if d.cursor.Consume("S") {
		ret.IsStatic = true
	}

	if d.cursor.StartsWith("F") {
		if _, err := d.readFuncinfo(ret); err != nil {
			return nil, err
		}
	}

	if d.cursor.HasData() {
		return nil, d.cursor.Errorf("trailing data after function info")
	}

	ret.Args = normalizeVoidArgs(ret.Args)
	return ret, nil
}

// stopAtTail fires at the `__` separating the plain name from the
// structured tail: a digit, `Q`, `F`, or `tm` must follow.  The
// separator itself is consumed.
func stopAtTail(c *Cursor) bool {
	if !c.StartsWith("__") {
		return false
	}
	tail := c.Peek(4)
	if len(tail) < 3 {
		return false
	}
	ch := tail[2]
	if isDigit(ch) || ch == 'Q' || ch == 'F' || strings.HasPrefix(tail[2:], "tm") {
		c.Skip(2)
		return true
	}
	return false
}

func (d *Demangler) readNamePrefix(fn *Function) {
	for _, entry := range namePrefixes {
		if d.cursor.Consume(entry.prefix) {
			fn.Kind = entry.kind
			return
		}
	}
}

// readTemplate reads a `tm__<len><body>` block at the cursor.  The
// body's first character is a count indicator the decoder doesn't
// need; the rest is a type list parsed by a fresh sub parser.
func (d *Demangler) readTemplate() ([]Type, error) {
	if err := d.cursor.Expect("tm__"); err != nil {
		return nil, err
	}
	body, err := d.cursor.ReadLengthString()
	if err != nil {
		return nil, err
	}
	return d.parseTemplateBody(body)
}

// parseTemplate parses a detached `tm__…` block, e.g. one embedded in
// a length-prefixed class name
func (d *Demangler) parseTemplate(src string) ([]Type, error) {
	c := NewCursor(src)
	if err := c.Expect("tm__"); err != nil {
		return nil, err
	}
	body, err := c.ReadLengthString()
	if err != nil {
		return nil, err
	}
	return d.parseTemplateBody(body)
}

func (d *Demangler) parseTemplateBody(body string) ([]Type, error) {
	if len(body) < 1 {
		return nil, d.cursor.Errorf("empty template body")
	}
	sub := NewDemangler()
	sub.cursor = NewCursor(body[1:])
	ret, err := sub.readTypes()
	if err != nil {
		return nil, err
	}
	d.templates = append(d.templates, ret)
	return ret, nil
}

// readLengthName reads a length-prefixed identifier, splitting off an
// embedded `tm__…` template when the class name carries one
func (d *Demangler) readLengthName() (Name, error) {
	s, err := d.cursor.ReadLengthString()
	if err != nil {
		return Name{}, err
	}
	ret := Name{Name: s}
	if idx := strings.Index(s, "tm__"); idx >= 0 {
		tmpl, err := d.parseTemplate(s[idx:])
		if err != nil {
			return Name{}, err
		}
		ret.Template = tmpl
		if idx >= 2 {
			ret.Name = s[:idx-2] // drop the `__` before `tm__`
		} else {
			ret.Name = ""
		}
	}
	return ret, nil
}

// readName reads one namespace segment: a length-prefixed identifier
// or a nested `Q` path, optionally followed by a template block
func (d *Demangler) readName() (Name, error) {
	var ret Name
	switch {
	case d.cursor.StartsWithDigit():
		var err error
		ret, err = d.readLengthName()
		if err != nil {
			return Name{}, err
		}
	case d.cursor.StartsWith("Q"):
		ns, err := d.readNamespace()
		if err != nil {
			return Name{}, err
		}
		last := len(ns.Path) - 1
		ret = ns.Path[last]
		ret.Namespace.Path = ns.Path[:last]
	default:
		return Name{}, d.cursor.Errorf("unknown name prefix %q", d.cursor.Peek(1))
	}

	if d.cursor.StartsWith("tm__") {
		tmpl, err := d.readTemplate()
		if err != nil {
			return Name{}, err
		}
		ret.Template = tmpl
	}
	return ret, nil
}

// readNamespace reads `Q<N>_<seg1>…<segN>`
func (d *Demangler) readNamespace() (Namespace, error) {
	var ret Namespace
	if err := d.cursor.Expect("Q"); err != nil {
		return Namespace{}, err
	}
	pathLen, err := d.cursor.ReadInt()
	if err != nil {
		return Namespace{}, err
	}
	if err := d.cursor.Expect("_"); err != nil {
		return Namespace{}, err
	}
	for i := 0; i < pathLen; i++ {
		if d.cursor.StartsWith("Z") {
			ref, err := d.readClassRef()
			if err != nil {
				return Namespace{}, err
			}
			ret.Path = append(ret.Path, ref.Basetype)
			continue
		}
		seg, err := d.readName()
		if err != nil {
			return Namespace{}, err
		}
		ret.Path = append(ret.Path, seg)
	}
	if len(ret.Path) == 0 {
		return Namespace{}, d.cursor.Errorf("empty namespace path")
	}
	return ret, nil
}

// readClassRef consumes a `Z<n>Z` class back-reference.
//
// TODO: resolve the index against the aggregated template lists
// instead of the char placeholder; downstream tooling currently
// expects the placeholder.
func (d *Demangler) readClassRef() (Type, error) {
	if err := d.cursor.Expect("Z"); err != nil {
		return Type{}, err
	}
	if _, err := d.cursor.ReadInt(); err != nil {
		return Type{}, err
	}
	if d.cursor.StartsWith("_") {
		return Type{}, d.cursor.Errorf("Z#_#Z is not supported")
	}
	if err := d.cursor.Expect("Z"); err != nil {
		return Type{}, err
	}
	ret := newType()
	ret.Basetype.Name = "char"
	return ret, nil
}

func (d *Demangler) readType() (Type, error) {
	first := d.cursor.Peek(1)
	if first == "" {
		return Type{}, d.cursor.Errorf("unexpected end of input in type")
	}
	ch := first[0]

	if prefix, ok := typePrefixes[ch]; ok {
		d.cursor.Skip(1)
		ret, err := d.readType()
		if err != nil {
			return Type{}, err
		}
		ret.Prefixes = append(ret.Prefixes, prefix)
		return ret, nil
	}
	if suffix, ok := typeSuffixes[ch]; ok {
		d.cursor.Skip(1)
		ret, err := d.readType()
		if err != nil {
			return Type{}, err
		}
		ret.Suffixes = append(ret.Suffixes, suffix)
		return ret, nil
	}
	if base, ok := basetypes[ch]; ok {
		d.cursor.Skip(1)
		ret := newType()
		ret.Basetype.Name = base
		return ret, nil
	}

	switch {
	case isDigit(ch):
		name, err := d.readLengthName()
		if err != nil {
			return Type{}, err
		}
		ret := newType()
		ret.Basetype = name
		return ret, nil

	case ch == 'Q':
		ns, err := d.readNamespace()
		if err != nil {
			return Type{}, err
		}
		last := len(ns.Path) - 1
		ret := newType()
		ret.Basetype = ns.Path[last]
		ret.Basetype.Namespace.Path = ns.Path[:last]
		return ret, nil

	case ch == 'Z':
		return d.readClassRef()

	case ch == 'F':
		fn, err := d.readFuncinfo(nil)
		if err != nil {
			return Type{}, err
		}
		return fn.ToType(), nil

	case ch == 'A':
		d.cursor.Skip(1)
		if d.cursor.StartsWith("_Z") {
			return Type{}, d.cursor.Errorf("array with class-ref length is not supported")
		}
		length, err := d.cursor.ReadInt()
		if err != nil {
			return Type{}, err
		}
		if err := d.cursor.Expect("_"); err != nil {
			return Type{}, err
		}
		ret, err := d.readType()
		if err != nil {
			return Type{}, err
		}
		ret.Length = length
		return ret, nil
	}

	return Type{}, d.cursor.Errorf("unknown type %q", first)
}

// readTypes consumes types until `_` or the end of the input.  `T<k>`
// and `N<c><k>` re-emit entries of the list being built; both are
// 1-based and must point at already-populated slots.  `X` values are
// consumed and dropped.
func (d *Demangler) readTypes() ([]Type, error) {
	var ret []Type
	for d.cursor.HasData() && !d.cursor.StartsWith("_") {
		switch {
		case d.cursor.Consume("T"):
			index, err := d.readDigit()
			if err != nil {
				return nil, err
			}
			if index < 1 || index > len(ret) {
				return nil, d.cursor.Errorf("type back-reference T%d out of range", index)
			}
			ret = append(ret, ret[index-1])

		case d.cursor.Consume("N"):
			count, err := d.readDigit()
			if err != nil {
				return nil, err
			}
			index, err := d.readDigit()
			if err != nil {
				return nil, err
			}
			if index < 1 || index > len(ret) {
				return nil, d.cursor.Errorf("type back-reference N%d%d out of range", count, index)
			}
			for i := 0; i < count; i++ {
				ret = append(ret, ret[index-1])
			}

		case d.cursor.Consume("X"):
			if err := d.readTemplateValue(); err != nil {
				return nil, err
			}

		default:
			t, err := d.readType()
			if err != nil {
				return nil, err
			}
			ret = append(ret, t)
		}
	}
	return ret, nil
}

// readTemplateValue consumes an `X…` non-type template value.  Both a
// raw identifier and a typed constant are consumed for their
// characters and dropped.
func (d *Demangler) readTemplateValue() error {
	if d.cursor.StartsWithDigit() {
		_, err := d.cursor.ReadLengthString()
		return err
	}

	if _, err := d.readType(); err != nil {
		return err
	}
	if d.cursor.Consume("L") {
		if err := d.cursor.Expect("_"); err != nil {
			return err
		}
		length, err := d.cursor.ReadInt()
		if err != nil {
			return err
		}
		if err := d.cursor.Expect("_"); err != nil {
			return err
		}
		if length > len(d.cursor.Remainder()) {
			return d.cursor.Errorf("template value literal of %d bytes runs past the end", length)
		}
		d.cursor.Read(length)
	} else if d.cursor.HasData() {
		d.cursor.Read(len(d.cursor.Remainder()))
	}
	return nil
}

// readFuncinfo reads `F<args>` and an optional `_<return>` into fn,
// allocating one when the caller passes nil
func (d *Demangler) readFuncinfo(fn *Function) (*Function, error) {
	if fn == nil {
		fn = &Function{}
	}
	if d.cursor.Consume("F") {
		args, err := d.readTypes()
		if err != nil {
			return nil, err
		}
		fn.Args = args
	}
	if d.cursor.Consume("_") {
		ret, err := d.readType()
		if err != nil {
			return nil, err
		}
		fn.ReturnType = ret
	}
	return fn, nil
}

func (d *Demangler) readDigit() (int, error) {
	s := d.cursor.Read(1)
	if len(s) != 1 || !isDigit(s[0]) {
		return 0, d.cursor.Errorf("expected a single digit, got %q", s)
	}
	return int(s[0] - '0'), nil
}

// normalizeVoidArgs turns the canonical `(void)` argument list into
// an empty one so nullary functions render as `name()`
func normalizeVoidArgs(args []Type) []Type {
	if len(args) != 1 {
		return args
	}
	t := args[0]
	if t.Basetype.Name == "void" &&
		len(t.Basetype.Namespace.Path) == 0 && len(t.Basetype.Template) == 0 &&
		len(t.Prefixes) == 0 && len(t.Suffixes) == 0 &&
		len(t.Arguments) == 0 && t.Length <= 1 {
		return nil
	}
	return args
}

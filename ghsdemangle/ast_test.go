package ghsdemangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_String(t *testing.T) {
	tests := []struct {
		name     string
		value    Name
		expected string
	}{
		{
			name:     "bare identifier",
			value:    NameFromString("foo"),
			expected: "foo",
		},
		{
			name: "qualified",
			value: Name{
				Name:      "bar",
				Namespace: Namespace{Path: []Name{NameFromString("Foo")}},
			},
			expected: "Foo::bar",
		},
		{
			name: "templated",
			value: Name{
				Name:     "vec",
				Template: []Type{NameFromString("int").ToType(), NameFromString("bool").ToType()},
			},
			expected: "vec<int, bool>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestType_String(t *testing.T) {
	ptrToConstChar := NameFromString("char").ToType()
	ptrToConstChar.Suffixes = []string{"const", "*"}

	array := NameFromString("int").ToType()
	array.Length = 4

	fnPtr := NameFromString("void").ToType()
	fnPtr.Arguments = []Type{NameFromString("int").ToType()}

	unsignedLong := NameFromString("long").ToType()
	unsignedLong.Prefixes = []string{"unsigned"}

	tests := []struct {
		name     string
		value    Type
		expected string
	}{
		{name: "suffixes join right in consumption order", value: ptrToConstChar, expected: "char const *"},
		{name: "prefixes join left", value: unsignedLong, expected: "unsigned long"},
		{name: "array length", value: array, expected: "int[4]"},
		{name: "function pointer", value: fnPtr, expected: "void(*)(int)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestFunction_KindSubstitution(t *testing.T) {
	ctor := &Function{Kind: "#"}
	ctor.Name.Namespace.Path = []Name{NameFromString("Foo")}
	assert.Equal(t, "Foo::Foo()", ctor.String())

	dtor := &Function{Kind: "~#"}
	dtor.Name.Namespace.Path = []Name{NameFromString("Foo")}
	assert.Equal(t, "Foo::~Foo()", dtor.String())

	unqualified := &Function{Kind: "#"}
	assert.Equal(t, "auto()", unqualified.String(), "unqualified ctor substitutes auto")
}

func TestFunction_String(t *testing.T) {
	fn := &Function{
		Name:       Name{Name: "f", Namespace: Namespace{Path: []Name{NameFromString("Foo")}}},
		Args:       []Type{NameFromString("int").ToType()},
		ReturnType: NameFromString("bool").ToType(),
		IsStatic:   true,
	}
	assert.Equal(t, "static bool Foo::f(int)", fn.String())
}

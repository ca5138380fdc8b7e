package ghsdemangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemangle_Rendering(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "global function, no args",
			input:    "foo__Fv",
			expected: "foo()",
		},
		{
			name:     "global function with args",
			input:    "foo__FiPc",
			expected: "foo(int, char *)",
		},
		{
			name:     "member function",
			input:    "bar__3FooFv",
			expected: "Foo::bar()",
		},
		{
			name:     "constructor",
			input:    "__ct__3FooFv",
			expected: "Foo::Foo()",
		},
		{
			name:     "destructor",
			input:    "__dt__3FooFv",
			expected: "Foo::~Foo()",
		},
		{
			name:     "nested namespace with back-reference",
			input:    "f__Q2_3Foo3BarFiT1",
			expected: "Foo::Bar::f(int, int)",
		},
		{
			name:     "const pointer suffix order",
			input:    "f__3FooFPCc",
			expected: "Foo::f(char const *)",
		},
		{
			name:     "static member",
			input:    "f__3FooCSFv",
			expected: "static Foo::f()",
		},
		{
			name:     "const member without static",
			input:    "f__3FooCFv",
			expected: "Foo::f()",
		},
		{
			name:     "return type marker",
			input:    "foo__Fi_v",
			expected: "void foo(int)",
		},
		{
			name:     "repeat back-reference",
			input:    "f__FiN21",
			expected: "f(int, int, int)",
		},
		{
			name:     "operator plus",
			input:    "__pl__3FooFi",
			expected: "Foo::operator+(int)",
		},
		{
			name:     "compound assignment matches before its stem",
			input:    "__apl__3FooFRi",
			expected: "Foo::operator+=(int &)",
		},
		{
			name:     "operator bitand-assign matches before logical and",
			input:    "__aad__3FooFi",
			expected: "Foo::operator&=(int)",
		},
		{
			name:     "function pointer argument",
			input:    "foo__FPFi_v",
			expected: "foo(void *(*)(int))",
		},
		{
			name:     "array argument",
			input:    "foo__FA4_i",
			expected: "foo(int[4])",
		},
		{
			name:     "unsigned prefix",
			input:    "foo__FUi",
			expected: "foo(unsigned int)",
		},
		{
			name:     "class reference placeholder",
			input:    "f__FZ1Z",
			expected: "f(char)",
		},
		{
			name:     "template on the function name",
			input:    "f__tm__2_iFv",
			expected: "f<int>()",
		},
		{
			name:     "template embedded in a class name",
			input:    "g__12Foo__tm__2_iFv",
			expected: "Foo<int>::g()",
		},
		{
			name:     "thunk prefix is stripped",
			input:    "__ghs_thunk__0xfffffff8__foo__Fv",
			expected: "foo()",
		},
		{
			name:     "compressed symbol",
			input:    "__CPR16__f__Q2_3FooJ6JFv",
			expected: "Foo::Foo::f()",
		},
		{
			name:     "plain name without a structured tail",
			input:    "start",
			expected: "start()",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Demangle(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fn.String())
		})
	}
}

func TestDemangle_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "back-reference out of range", input: "f__FT1"},
		{name: "repeat back-reference out of range", input: "f__FiN23"},
		{name: "unknown type letter", input: "f__FG"},
		{name: "truncated namespace", input: "f__Q2_3Foo"},
		{name: "truncated length-prefixed name", input: "f__9FooFv"},
		{name: "nested class reference", input: "f__FZ1_2Z"},
		{name: "compressed back-reference past expansion point", input: "__CPR10__abJ5Jc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Demangle(tt.input)
			require.Error(t, err)

			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.input, BestEffort(tt.input))
		})
	}
}

// Every input comes back either parsed or untouched; nothing panics.
func TestBestEffort_NeverRaises(t *testing.T) {
	inputs := []string{
		"",
		"__",
		"foo__",
		"____ct__3FooFv",
		"__CPR",
		"__CPR9",
		"__CPR9__",
		"__ghs_thunk__",
		"f__F",
		"f__Q",
		"f__Q0_",
		"f__FA_i",
		"f__FAZ",
		"f__FXL_9_ab",
		"\x00\xff",
		"9",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			out := BestEffort(input)
			if _, err := Demangle(input); err != nil {
				assert.Equal(t, input, out)
			}
		}, "input %q", input)
	}
}

func TestDemangle_RenderingIsDeterministic(t *testing.T) {
	fn, err := Demangle("f__Q2_3Foo3BarFiT1PCc_v")
	require.NoError(t, err)
	assert.Equal(t, fn.String(), fn.String())
}

func TestDemangle_TemplateValues(t *testing.T) {
	// template values are consumed and dropped, so they leave no
	// entry in the rendered template list
	fn, err := Demangle("f__tm__6_X3absFv")
	require.NoError(t, err)
	assert.Equal(t, "f()", fn.String())
}

func TestDemangle_OperatorTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"__as__3FooFi", "Foo::operator=(int)"},
		{"__eq__3FooFi", "Foo::operator==(int)"},
		{"__vc__3FooFi", "Foo::operator[](int)"},
		{"__rf__3FooFv", "Foo::operator->()"},
		{"__als__3FooFi", "Foo::operator<<=(int)"},
		{"__ls__3FooFi", "Foo::operator<<(int)"},
		{"__nw__3FooFUi", "Foo::operator new(unsigned int)"},
		{"__adv__3FooFi", "Foo::operator/=(int)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			fn, err := Demangle(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fn.String())
		})
	}
}

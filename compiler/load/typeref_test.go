package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		input string
		want  TypeRef
	}{
		{"string", Builtin("string")},
		{"time.Time", Named("time", "Time")},
		{"*time.Time", PointerTo(Named("time", "Time"))},
		{"[]byte", SliceOf(Builtin("byte"))},
		{"map[string]int", MapOf(Builtin("string"), Builtin("int"))},
		{"gopkg.in/yaml.v3.Node", Named("gopkg.in/yaml.v3", "Node")},
		{"github.com/shopspring/decimal.Decimal", Named("github.com/shopspring/decimal", "Decimal")},
		{"{productPage}", ModelOf("productPage")},
		{"[]{ product }", SliceOf(ModelOf("product"))},
		{"example.com/p.Pair[int, {a}]", Named("example.com/p", "Pair", Builtin("int"), ModelOf("a"))},
		{"map[string][]*Local", MapOf(Builtin("string"), SliceOf(PointerTo(Named("", "Local"))))},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTypeRef(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeRefErrors(t *testing.T) {
	for _, input := range []string{"", "[]", "map[string", "{}", "{open", "a/b", "x.1y", "Pair[int", "int extra"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTypeRef(input)
			assert.Error(t, err)
		})
	}
}

func TestTypeRefString(t *testing.T) {
	for _, s := range []string{
		"string",
		"*time.Time",
		"map[string][]example.com/p.Pair[int, {a}]",
		"[]{product}",
	} {
		assert.Equal(t, s, MustParseTypeRef(s).String())
	}
}

func TestTypeRefHelpers(t *testing.T) {
	r := MustParseTypeRef("map[{a}][]example.com/p.Pair[{b}, int]")
	assert.Equal(t, []string{"a", "b"}, r.Models())
	assert.False(t, r.IsBuiltin())
	assert.True(t, Builtin("error").IsBuiltin())
	assert.False(t, Named("", "Local").IsBuiltin())
	assert.True(t, TypeRef{}.IsZero())

	mapped := r.Map(func(ref TypeRef) TypeRef {
		if ref.Kind == RefModel {
			return PointerTo(Named("", "M"+ref.Name))
		}
		return ref
	})
	assert.Equal(t, "map[*Ma][]example.com/p.Pair[*Mb, int]", mapped.String())
	assert.Equal(t, "map[{a}][]example.com/p.Pair[{b}, int]", r.String(), "Map must not alter the receiver")
}

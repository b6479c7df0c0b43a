package load

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/modelsbuilder"
)

func TestGraphValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		g, err := NewGraph(
			&ContentType{ID: 1, Alias: "page", Properties: []*PropertyType{{Alias: "title", Type: Builtin("string")}}},
			&ContentType{ID: 2, Alias: "home", ParentID: 1},
			&ContentType{ID: 3, Alias: "page", Kind: modelsbuilder.KindMedia},
		)
		require.NoError(t, err)
		assert.Equal(t, modelsbuilder.KindContent, g.Type(1).Kind)
		assert.Equal(t, "page", g.Owner(g.Type(1).Properties[0]).Alias)
		assert.Equal(t, []*ContentType{g.Type(1)}, g.Ancestors(g.Type(2)))
		assert.Nil(t, g.Type(42))
	})

	t.Run("reports every violation", func(t *testing.T) {
		_, err := NewGraph(
			&ContentType{ID: 1, Alias: "page", MixinIDs: []int{9}},
			&ContentType{ID: 1, Alias: "dup"},
			&ContentType{ID: 2, Alias: "page", ParentID: 7},
			&ContentType{ID: 3, Alias: "props", Properties: []*PropertyType{
				{Alias: "a", Type: Builtin("int")},
				{Alias: "a", Type: Builtin("int")},
				{Alias: "b"},
			}},
		)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidGraph))
		assert.True(t, IsGraphError(err))
		for _, msg := range []string{"unknown mixin 9", "duplicate id 1", "alias shared", "unknown parent 7", "duplicate property alias", "missing value type"} {
			assert.Contains(t, err.Error(), msg)
		}
	})

	t.Run("cycles", func(t *testing.T) {
		tests := []struct {
			name  string
			types []*ContentType
		}{
			{"parent", []*ContentType{
				{ID: 1, Alias: "a", ParentID: 2},
				{ID: 2, Alias: "b", ParentID: 1},
			}},
			{"mixin", []*ContentType{
				{ID: 1, Alias: "a", MixinIDs: []int{2}},
				{ID: 2, Alias: "b", MixinIDs: []int{3}},
				{ID: 3, Alias: "c", MixinIDs: []int{1}},
			}},
			{"self", []*ContentType{
				{ID: 1, Alias: "a", MixinIDs: []int{1}},
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewGraph(tt.types...)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "cycle")
			})
		}
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		_, err := NewGraph(
			&ContentType{ID: 1, Alias: "a"},
			&ContentType{ID: 2, Alias: "b", MixinIDs: []int{1}},
			&ContentType{ID: 3, Alias: "c", MixinIDs: []int{1}},
			&ContentType{ID: 4, Alias: "d", ParentID: 2, MixinIDs: []int{3, 1}},
		)
		require.NoError(t, err)
	})
}

func TestGraphError(t *testing.T) {
	cause := errors.New("boom")
	err := &GraphError{Type: "page", Property: "title", Message: "bad", Cause: cause}
	assert.Equal(t, "modelsbuilder: graph error on type page property title: bad: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

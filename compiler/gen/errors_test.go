package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameCollisionError(t *testing.T) {
	t.Run("Error message for types", func(t *testing.T) {
		err := NewNameCollisionError("", "Type1", "Type-1", "type1")

		assert.Equal(t, `modelsbuilder: name collision: Type1 is the name of "Type-1", "type1"`, err.Error())
	})

	t.Run("Error message for properties", func(t *testing.T) {
		err := NewNameCollisionError("page", "Title", "title", "Title")

		assert.Contains(t, err.Error(), `on type "page"`)
		assert.Contains(t, err.Error(), `"title", "Title"`)
	})

	t.Run("Is matches ErrNameCollision", func(t *testing.T) {
		err := NewNameCollisionError("", "A", "a", "A")
		assert.True(t, errors.Is(err, ErrNameCollision))
		assert.False(t, errors.Is(err, ErrInvalidComposition))
	})

	t.Run("IsNameCollisionError helper", func(t *testing.T) {
		joined := errors.Join(errors.New("other"), NewNameCollisionError("", "A", "a", "A"))
		assert.True(t, IsNameCollisionError(joined))
		assert.False(t, IsNameCollisionError(errors.New("other")))
	})
}

func TestInvalidCompositionError(t *testing.T) {
	err := NewInvalidCompositionError("card", "page", "mixin")

	assert.Equal(t, `modelsbuilder: invalid composition: element type "card" cannot use "page" as mixin`, err.Error())
	assert.True(t, errors.Is(err, ErrInvalidComposition))
	assert.True(t, IsInvalidCompositionError(err))
	assert.False(t, IsInvalidCompositionError(NewConfigError("Package", nil, "")))
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("MemberStyle", "fancy", "unsupported style")

		assert.Contains(t, err.Error(), "modelsbuilder: config error")
		assert.Contains(t, err.Error(), "MemberStyle")
		assert.Contains(t, err.Error(), "fancy")
		assert.Contains(t, err.Error(), "unsupported style")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Package", nil, "cannot be empty")

		assert.Contains(t, err.Error(), "Package")
		assert.NotContains(t, err.Error(), "value:")
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		assert.True(t, errors.Is(NewConfigError("Package", nil, "missing"), ErrMissingConfig))
	})

	t.Run("IsConfigError helper", func(t *testing.T) {
		assert.True(t, IsConfigError(NewConfigError("Package", nil, "missing")))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("expected ';'")
		err := NewGenerationError("format", "page_gen.go", "invalid source", cause)

		assert.Equal(t, "modelsbuilder: generation error in phase format (file: page_gen.go): invalid source: expected ';'", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewGenerationError("infos", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrGenerationFailed))
	})

	t.Run("IsGenerationError helper", func(t *testing.T) {
		assert.True(t, IsGenerationError(NewGenerationError("model", "", "x", nil)))
		assert.False(t, IsGenerationError(errors.New("other")))
	})
}

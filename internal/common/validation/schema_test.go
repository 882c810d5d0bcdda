package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name", "tags"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
  },
  "additionalProperties": false
}`

func TestValidator_ValidDocument(t *testing.T) {
	v, err := NewValidator(personSchema)
	require.NoError(t, err)

	result, err := v.ValidateBytes([]byte(`{"name": "Emma", "tags": ["chess"]}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidator_ReportsFieldErrors(t *testing.T) {
	v, err := NewValidator(personSchema)
	require.NoError(t, err)

	result, err := v.ValidateValue(map[string]interface{}{
		"name":  "",
		"tags":  []interface{}{"a", "a"},
		"extra": true,
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("name"))
	assert.True(t, result.HasErrors("tags"))
	assert.False(t, result.HasErrors("missing"))
	assert.NotEmpty(t, result.GetErrorMessages())
}

func TestValidator_MissingRequired(t *testing.T) {
	v, err := NewValidator(personSchema)
	require.NoError(t, err)

	result, err := v.ValidateBytes([]byte(`{}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.Equal(t, "REQUIRED", e.Code)
	}
}

func TestValidator_BadInput(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)

	v, err := NewValidator(personSchema)
	require.NoError(t, err)
	_, err = v.ValidateBytes([]byte(`{not json`))
	assert.Error(t, err)
}

func TestValidator_RequiredErrorsNameTheProperty(t *testing.T) {
	v, err := NewValidator(personSchema)
	require.NoError(t, err)

	result, err := v.ValidateBytes([]byte(`{"tags": []}`))
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "name", result.Errors[0].Field)
}

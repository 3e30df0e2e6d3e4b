package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Query       *string  `json:"query" validate:"required"`
	MaxTokens   int      `json:"max_tokens" validate:"gte=1,lte=4096"`
	Temperature float64  `json:"temperature" validate:"gte=0,lte=2"`
	TopK        int      `json:"top_k" validate:"min=0,max=100"`
	Note        string   `json:"-" validate:"max=3"`
	Tags        []string `validate:"max=2"`
}

func strPtr(s string) *string { return &s }

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := sampleRequest{Query: strPtr(""), MaxTokens: 512, Temperature: 0.7, TopK: 3}
		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("missing query reported by json name", func(t *testing.T) {
		s := sampleRequest{MaxTokens: 512}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "query is required", GetValidationFields(err)["query"])
	})

	t.Run("out of range fields", func(t *testing.T) {
		s := sampleRequest{Query: strPtr("q"), MaxTokens: 0, Temperature: 3, TopK: 101}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "max_tokens must be greater than or equal to 1", fields["max_tokens"])
		assert.Equal(t, "temperature must be less than or equal to 2", fields["temperature"])
		assert.Equal(t, "top_k must be at most 100", fields["top_k"])
	})

	t.Run("untagged and ignored json names fall back to the Go name", func(t *testing.T) {
		s := sampleRequest{Query: strPtr("q"), MaxTokens: 1, Note: "long", Tags: []string{"a", "b", "c"}}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Contains(t, fields, "Note")
		assert.Contains(t, fields, "Tags")
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "Test validation error", Fields: map[string]string{"field1": "error1"}}
	assert.Equal(t, "Test validation error", err.Error())
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "test"}))
	assert.False(t, IsValidationError(assert.AnError))
}

func TestGetValidationFields(t *testing.T) {
	fields := map[string]string{"field1": "error1", "field2": "error2"}
	assert.Equal(t, fields, GetValidationFields(&ValidationError{Message: "test", Fields: fields}))
	assert.Nil(t, GetValidationFields(assert.AnError))
}

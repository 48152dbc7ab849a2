package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email string `validate:"required,email"`
	Age   int    `validate:"gte=18"`
}

func TestValidateStructCollectsFields(t *testing.T) {
	err := ValidateStruct(signup{Email: "nope", Age: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []FieldError{
		{Field: "signup.Email", Rule: "email"},
		{Field: "signup.Age", Rule: "gte"},
	}, verr.Fields)
}

func TestValidateStructAcceptsValid(t *testing.T) {
	assert.NoError(t, ValidateStruct(signup{Email: "a@b.co", Age: 30}))
}

func TestInvalidMatchesSentinel(t *testing.T) {
	err := Invalid("quantity %d", 0)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: quantity 0", err.Error())
}

type secret struct {
	Value string `validate:"maxbytes=4"`
}

func TestMaxBytesCountsEncodedLength(t *testing.T) {
	assert.NoError(t, ValidateStruct(secret{Value: "abcd"}))
	assert.NoError(t, ValidateStruct(secret{Value: "ññ"}))

	err := ValidateStruct(secret{Value: "ñññ"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []FieldError{{Field: "secret.Value", Rule: "maxbytes"}}, verr.Fields)
}

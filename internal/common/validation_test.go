package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Required("f", "value"))
	assert.NotNil(t, Required("f", nil))
	assert.NotNil(t, Required("f", ""))
	assert.NotNil(t, Required("f", "   "))

	s := "ok"
	assert.Nil(t, Required("f", &s))
	var nilStr *string
	assert.NotNil(t, Required("f", nilStr))
}

func TestUUIDRule(t *testing.T) {
	t.Parallel()

	assert.Nil(t, UUID("id", uuid.New().String()))
	assert.NotNil(t, UUID("id", "not-a-uuid"))
	assert.NotNil(t, UUID("id", 42))
}

func TestCurrencyCode(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CurrencyCode("currency", "BDT"))
	assert.Nil(t, CurrencyCode("currency", "USD"))
	assert.NotNil(t, CurrencyCode("currency", "bdt"))
	assert.NotNil(t, CurrencyCode("currency", "TAKA"))
	assert.NotNil(t, CurrencyCode("currency", ""))
	assert.NotNil(t, CurrencyCode("currency", 100))
}

func TestValidatorCollectsErrors(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	v.Field("merchant", "", Required)
	v.Field("currency", "taka", CurrencyCode)

	require.True(t, v.HasErrors())
	err := v.Error()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchant")
	assert.Contains(t, err.Error(), "currency")

	clean := NewValidator()
	clean.Field("merchant", "Agora", Required)
	assert.False(t, clean.HasErrors())
	assert.NoError(t, clean.Error())
}

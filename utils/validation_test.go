package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotBlank(t *testing.T) {
	assert.NoError(t, Validate.Var("Asha", "notblank"))
	assert.Error(t, Validate.Var("", "notblank"))
	assert.Error(t, Validate.Var("   ", "notblank"))
}

func TestHasAt(t *testing.T) {
	assert.NoError(t, Validate.Var("asha@example.com", "hasat"))
	assert.NoError(t, Validate.Var("@", "hasat"))
	assert.Error(t, Validate.Var("asha.example.com", "hasat"))
}

func TestJSONFieldNames(t *testing.T) {
	type req struct {
		FullName string `json:"full_name" validate:"notblank"`
	}
	err := Validate.Struct(req{})
	assert.ErrorContains(t, err, "full_name")
}

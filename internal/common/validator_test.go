package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Valid())

	v.Check(false, "title", "must be provided")
	v.Check(false, "title", "must be short")
	v.Check(true, "slug", "never recorded")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"title": "must be provided"}, v.Errors)
	assert.Equal(t, ValidationError{Errors: map[string]string{"title": "must be provided"}}, v.ValidationError())
}

func TestValidatorHelpers(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.CheckStringLength("héllo", 5, 5))
	assert.False(t, v.CheckStringLength("", 1, 5))
	assert.True(t, v.Matches("abc-1", regexp.MustCompile(`^[a-z0-9-]+$`)))
	assert.True(t, v.PermittedValue("image/png", "image/png", "image/jpeg"))
	assert.False(t, v.PermittedValue("image/gif", "image/png", "image/jpeg"))
}

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"display_name" validate:"max=5"`
	Role  string `json:"role" validate:"omitempty,oneof=admin viewer"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signUp{Email: "nope", Name: "far too long", Role: "owner", Color: "red"})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"email":        "must be a valid email address",
		"display_name": "must be at most 5 characters",
		"role":         "must be one of: admin viewer",
		"color":        "must be a hex color such as #3B82F6",
	}, verr.Fields)
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, Struct(signUp{Email: "a@example.com", Color: "#fff"}))
}

func TestRequired(t *testing.T) {
	err := Struct(signUp{})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["email"])
}

func TestErrorMessageIsSorted(t *testing.T) {
	err := &Error{Fields: map[string]string{"title": "is required", "icon": "is invalid"}}
	assert.Equal(t, "validation failed: icon is invalid; title is required", err.Error())

	assert.Equal(t, "validation failed: field is not editable", Field("field", "is not editable").Error())
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("accent_color", "", "omitempty,hexcolor"))
	assert.NoError(t, Var("accent_color", "#10B981", "omitempty,hexcolor"))

	err := Var("accent_color", "green", "omitempty,hexcolor")
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"accent_color": "must be a hex color such as #3B82F6"}, verr.Fields)
}

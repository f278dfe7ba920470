package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required"`
	Desc  string `json:"description" validate:"required,max=5"`
	Phone string `json:"phone" validate:"required,phone"`
	Kind  string `json:"kind" validate:"oneof=sale rental"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(sample{Title: "a", Desc: "ñañañ", Phone: "+5217711234567", Kind: "sale"}))

	err := v.Validate(sample{Desc: "toolong", Phone: "12-34", Kind: "gift"})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"title":       "is required",
		"description": "must be at most 5 characters",
		"phone":       "must contain 10 to 16 digits",
		"kind":        "must be one of: sale, rental",
	}, verr.Fields)
	assert.True(t, strings.HasPrefix(verr.Error(), "invalid input: description:"))
}

func TestPhoneLengthBounds(t *testing.T) {
	v := New()
	type p struct {
		Phone string `json:"phone" validate:"phone"`
	}
	assert.Error(t, v.Validate(p{Phone: "123456789"}))
	assert.NoError(t, v.Validate(p{Phone: "1234567890"}))
	assert.NoError(t, v.Validate(p{Phone: "1234567890123456"}))
	assert.Error(t, v.Validate(p{Phone: "12345678901234567"}))
	assert.NoError(t, v.Validate(p{Phone: "+123456789012345"}))
	assert.Error(t, v.Validate(p{Phone: "+1234567890123456"}), "17 characters do not fit the column")
	assert.Error(t, v.Validate(p{Phone: "+123456789"}))
}

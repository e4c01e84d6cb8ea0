package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance_server/server/common/apperr"
)

type studentForm struct {
	Name       string  `json:"name" validate:"required,min=2,max=100,alphaspace"`
	RollNumber string  `json:"rollNumber" validate:"required,alphanum,max=20"`
	Division   string  `json:"division" validate:"required,max=10"`
	Note       *string `json:"note" validate:"omitempty,max=5"`
}

func TestStructReportsEveryMissingField(t *testing.T) {
	res := Struct(studentForm{})

	require.False(t, res.OK())
	require.Len(t, res.Errors, 3)
	assert.Equal(t, `"name" is required, "rollNumber" is required, "division" is required`, res.Error())
	assert.Equal(t, "rollNumber", res.Errors[1].Field)
	assert.ErrorIs(t, res.Err(), apperr.ErrValidation)
}

func TestStructMixedViolations(t *testing.T) {
	res := Struct(studentForm{Name: "J0hn", RollNumber: "A-1", Division: "A"})

	require.Len(t, res.Errors, 2)
	assert.Equal(t, `"name" must only contain letters and spaces`, res.Errors[0].Message)
	assert.Equal(t, `"rollNumber" must only contain alpha-numeric characters`, res.Errors[1].Message)
}

func TestStructPasses(t *testing.T) {
	res := Struct(studentForm{Name: "Jane Doe", RollNumber: "CS101", Division: "A"})
	assert.True(t, res.OK())
	assert.NoError(t, res.Err())
}

func TestTrimStrings(t *testing.T) {
	note := "  hi  "
	form := studentForm{Name: "  Jane  ", RollNumber: " 7 ", Note: &note}
	TrimStrings(&form)

	assert.Equal(t, "Jane", form.Name)
	assert.Equal(t, "7", form.RollNumber)
	assert.Equal(t, "hi", *form.Note)

	TrimStrings(form)
}

func TestWithMergesExtraFieldErrors(t *testing.T) {
	res := Struct(studentForm{Division: "A"}).
		With(FieldError{Field: "name", Message: `"name" must be a real name`})

	require.Len(t, res.Errors, 2)
	assert.Equal(t, `"name" must be a real name, "rollNumber" is required`, res.Error())
	assert.True(t, Result{}.With().OK())
}

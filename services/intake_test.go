package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeSteps(t *testing.T) {
	assert.Len(t, IntakeSteps(false), 4)
	assert.Len(t, IntakeSteps(true), 5)
	assert.Equal(t, FieldGender, IntakeSteps(true)[2].Field)
	assert.Equal(t, FieldEmail, IntakeSteps(false)[3].Field)
}

func TestIntakeSession_WalkThrough(t *testing.T) {
	s := NewIntakeSession(false, nil)
	assert.Equal(t, 1, s.CurrentStep)
	assert.Equal(t, 4, s.TotalSteps)

	steps := []struct {
		bad, good, msg string
	}{
		{"   ", "Asha Rao", "Please enter your full name"},
		{"", "1990-05-15", "Please select your date of birth"},
		{"12345", "9876543210", "Please enter a valid mobile number"},
		{"asha.example.com", "asha@example.com", "Please enter a valid email address"},
	}

	for i, st := range steps {
		want := i + 1
		s.SetValue(st.bad)
		submit, err := s.Next()
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "step %d", want)
		assert.Equal(t, st.msg, verr.Message)
		assert.False(t, submit)
		assert.Equal(t, want, s.CurrentStep, "failed validation must not advance")

		s.SetValue(st.good)
		submit, err = s.Next()
		require.NoError(t, err)
		if want < 4 {
			assert.False(t, submit)
			assert.Equal(t, want+1, s.CurrentStep)
		} else {
			assert.True(t, submit)
			assert.Equal(t, 4, s.CurrentStep)
		}
	}

	assert.Equal(t, ashaForm(), s.Form)
	require.NoError(t, ValidateIntakeForm(s.Form, false))
}

func TestIntakeSession_PhoneLengthIsNotDigitAware(t *testing.T) {
	s := NewIntakeSession(false, nil)
	s.CurrentStep = 3
	s.SetValue("abcdefghij")
	_, err := s.Next()
	assert.NoError(t, err)
}

func TestIntakeSession_GenderStep(t *testing.T) {
	s := NewIntakeSession(true, nil)
	s.CurrentStep = 3

	s.SetValue("")
	_, err := s.Next()
	require.NoError(t, err, "gender is optional")
	assert.Equal(t, 4, s.CurrentStep)

	s.CurrentStep = 3
	s.SetValue("unknown")
	_, err = s.Next()
	assert.Error(t, err)

	s.SetValue(" Female ")
	_, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "female", s.Form.Gender)
}

func TestIntakeSession_PreviousFromFirstStepExits(t *testing.T) {
	s := NewIntakeSession(false, nil)
	s.CurrentStep = 3

	assert.False(t, s.Previous())
	assert.Equal(t, 2, s.CurrentStep)
	assert.False(t, s.Previous())
	assert.Equal(t, 1, s.CurrentStep)
	assert.True(t, s.Previous())
	assert.True(t, s.Exited)
	assert.Equal(t, 1, s.CurrentStep)
}

func TestIntakeSession_Persistence(t *testing.T) {
	newTestEnv(t)
	ctx := context.Background()

	s := NewIntakeSession(false, nil)
	s.SetValue("Asha Rao")
	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, SaveIntakeSession(ctx, s))

	loaded, err := LoadIntakeSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.CurrentStep)
	assert.Equal(t, "Asha Rao", loaded.Form.FullName)

	require.NoError(t, DeleteIntakeSession(ctx, s.ID))
	_, err = LoadIntakeSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrIntakeSessionNotFound)
}

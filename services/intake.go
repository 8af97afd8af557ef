package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/vedic_numerology/cache"
	"github.com/anjiri1684/vedic_numerology/utils"
	"github.com/google/uuid"
)

const (
	FieldFullName    = "full_name"
	FieldDateOfBirth = "date_of_birth"
	FieldGender      = "gender"
	FieldPhone       = "phone"
	FieldEmail       = "email"
)

const IntakeSessionTTL = 2 * time.Hour

var ErrIntakeSessionNotFound = errors.New("intake session not found or expired")

// IntakeStep is one screen of the report form.
type IntakeStep struct {
	Field    string `json:"field"`
	Prompt   string `json:"prompt"`
	Optional bool   `json:"optional"`
	rule     string
	message  string
}

var (
	stepFullName = IntakeStep{
		Field: FieldFullName, Prompt: "What's your full name?",
		rule: "notblank", message: "Please enter your full name",
	}
	stepDateOfBirth = IntakeStep{
		Field: FieldDateOfBirth, Prompt: "When were you born?",
		rule: "notblank,datetime=2006-01-02", message: "Please select your date of birth",
	}
	stepGender = IntakeStep{
		Field: FieldGender, Prompt: "What's your gender?", Optional: true,
		rule: "omitempty,oneof=male female other", message: "Please choose male, female or other",
	}
	stepPhone = IntakeStep{
		Field: FieldPhone, Prompt: "What's your mobile number?",
		rule: "notblank,min=10", message: "Please enter a valid mobile number",
	}
	stepEmail = IntakeStep{
		Field: FieldEmail, Prompt: "What's your email address?",
		rule: "notblank,hasat", message: "Please enter a valid email address",
	}
)

func IntakeSteps(collectGender bool) []IntakeStep {
	if collectGender {
		return []IntakeStep{stepFullName, stepDateOfBirth, stepGender, stepPhone, stepEmail}
	}
	return []IntakeStep{stepFullName, stepDateOfBirth, stepPhone, stepEmail}
}

type IntakeForm struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender,omitempty"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (f *IntakeForm) value(field string) string {
	switch field {
	case FieldFullName:
		return f.FullName
	case FieldDateOfBirth:
		return f.DateOfBirth
	case FieldGender:
		return f.Gender
	case FieldPhone:
		return f.Phone
	case FieldEmail:
		return f.Email
	}
	return ""
}

func (f *IntakeForm) set(field, v string) {
	switch field {
	case FieldFullName:
		f.FullName = v
	case FieldDateOfBirth:
		f.DateOfBirth = v
	case FieldGender:
		f.Gender = strings.ToLower(strings.TrimSpace(v))
	case FieldPhone:
		f.Phone = v
	case FieldEmail:
		f.Email = v
	}
}

// ValidationError is shown inline next to the offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func validateStep(step IntakeStep, form *IntakeForm) error {
	if err := utils.Validate.Var(form.value(step.Field), step.rule); err != nil {
		return &ValidationError{Field: step.Field, Message: step.message}
	}
	return nil
}

// ValidateIntakeForm checks every step in order and returns the first failure.
func ValidateIntakeForm(form IntakeForm, collectGender bool) error {
	for _, step := range IntakeSteps(collectGender) {
		if err := validateStep(step, &form); err != nil {
			return err
		}
	}
	return nil
}

// IntakeSession is the server-side state of one pass through the form.
// CurrentStep is 1-based.
type IntakeSession struct {
	ID            string     `json:"id"`
	CurrentStep   int        `json:"current_step"`
	TotalSteps    int        `json:"total_steps"`
	CollectGender bool       `json:"collect_gender"`
	Form          IntakeForm `json:"form"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	ReportID      *uuid.UUID `json:"report_id,omitempty"`
	Exited        bool       `json:"exited"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewIntakeSession(collectGender bool, userID *uuid.UUID) *IntakeSession {
	now := time.Now()
	return &IntakeSession{
		ID:            uuid.NewString(),
		CurrentStep:   1,
		TotalSteps:    len(IntakeSteps(collectGender)),
		CollectGender: collectGender,
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *IntakeSession) Steps() []IntakeStep {
	return IntakeSteps(s.CollectGender)
}

func (s *IntakeSession) Current() IntakeStep {
	return s.Steps()[s.CurrentStep-1]
}

func (s *IntakeSession) IsFinalStep() bool {
	return s.CurrentStep == s.TotalSteps
}

// SetValue stores the answer for the current step without validating it.
func (s *IntakeSession) SetValue(value string) {
	s.Form.set(s.Current().Field, value)
	s.UpdatedAt = time.Now()
}

// Next validates the current step. On failure the step does not change.
// On the final step it reports submit=true instead of advancing.
func (s *IntakeSession) Next() (submit bool, err error) {
	if err := validateStep(s.Current(), &s.Form); err != nil {
		return false, err
	}
	if s.IsFinalStep() {
		return true, nil
	}
	s.CurrentStep++
	s.UpdatedAt = time.Now()
	return false, nil
}

// Previous moves one step back. From step 1 it leaves the flow.
func (s *IntakeSession) Previous() (exited bool) {
	if s.CurrentStep > 1 {
		s.CurrentStep--
		s.UpdatedAt = time.Now()
		return false
	}
	s.Exited = true
	return true
}

func SaveIntakeSession(ctx context.Context, s *IntakeSession) error {
	if cache.Default == nil {
		return errors.New("intake sessions need Redis")
	}
	if err := cache.Default.SetIntakeSession(ctx, s.ID, s, IntakeSessionTTL); err != nil {
		return fmt.Errorf("save intake session: %w", err)
	}
	return nil
}

func LoadIntakeSession(ctx context.Context, id string) (*IntakeSession, error) {
	if cache.Default == nil {
		return nil, errors.New("intake sessions need Redis")
	}
	var s IntakeSession
	if err := cache.Default.GetIntakeSession(ctx, id, &s); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrIntakeSessionNotFound
		}
		return nil, fmt.Errorf("load intake session: %w", err)
	}
	return &s, nil
}

func DeleteIntakeSession(ctx context.Context, id string) error {
	if cache.Default == nil {
		return nil
	}
	return cache.Default.DeleteIntakeSession(ctx, id)
}

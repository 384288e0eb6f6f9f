package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	FirstName string `json:"first_name" validate:"required"`
	Phone     string `json:"phone" validate:"required,phone"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin organizer"`
}

type card struct {
	Number string `json:"card_number" validate:"required,cardnumber"`
	CVV    string `json:"cvv" validate:"required,cvv"`
	Expiry string `json:"expiry_date" validate:"omitempty,expiry"`
}

type schedule struct {
	Date string `json:"date" validate:"required,date"`
	Time string `json:"time" validate:"required,clock"`
	Type string `json:"event_type" validate:"required,eventtype"`
}

func validSignup() signup {
	return signup{FirstName: "Jane", Phone: "5551234567", Email: "jane@x.com", Password: "secret1", Role: "user"}
}

func TestValidate_Signup(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Validate(ctx, validSignup()))

	tests := []struct {
		name    string
		mutate  func(*signup)
		field   string
		message string
	}{
		{"missing first name", func(s *signup) { s.FirstName = "" }, "first_name", "first_name is required"},
		{"bad email", func(s *signup) { s.Email = "jane" }, "email", "Invalid email format"},
		{"short phone", func(s *signup) { s.Phone = "555123" }, "phone", "Phone number must be exactly 10 digits"},
		{"letters in phone", func(s *signup) { s.Phone = "555123456a" }, "phone", "Phone number must be exactly 10 digits"},
		{"short password", func(s *signup) { s.Password = "12345" }, "password", "password must be at least 6 characters long"},
		{"unknown role", func(s *signup) { s.Role = "root" }, "role", "role must be one of: user, admin, organizer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSignup()
			tt.mutate(&s)

			err := Validate(ctx, s)
			require.Error(t, err)
			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Error())
		})
	}
}

func TestValidate_Card(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Validate(ctx, card{Number: "4111111111111111", CVV: "123", Expiry: "12/29"}))
	require.NoError(t, Validate(ctx, card{Number: "4111111111111111", CVV: "1234"}))

	err := Validate(ctx, card{Number: "4111", CVV: "123"})
	assert.EqualError(t, err, "Card number must be 12 to 19 digits")

	err = Validate(ctx, card{Number: "4111111111111111", CVV: "12"})
	assert.EqualError(t, err, "CVV must be 3 or 4 digits")

	err = Validate(ctx, card{Number: "4111111111111111", CVV: "123", Expiry: "13/29"})
	assert.EqualError(t, err, "Expiry date must be in MM/YY format")
}

func TestValidate_Schedule(t *testing.T) {
	ctx := context.Background()
	SetEventTypes([]string{"Workshop", "Other"})

	require.NoError(t, Validate(ctx, schedule{Date: "2026-11-02", Time: "18:30", Type: "Workshop"}))

	err := Validate(ctx, schedule{Date: "02/11/2026", Time: "18:30", Type: "Workshop"})
	assert.EqualError(t, err, "date must be a date in YYYY-MM-DD format")

	err = Validate(ctx, schedule{Date: "2026-11-02", Time: "6pm", Type: "Workshop"})
	assert.EqualError(t, err, "time must be a time in HH:MM format")

	err = Validate(ctx, schedule{Date: "2026-11-02", Time: "18:30", Type: "Rave"})
	assert.EqualError(t, err, "event_type is not a supported event type")
}

func TestValidate_NonStructErrorIsIgnored(t *testing.T) {
	assert.NoError(t, parseValidationErrors(nil))
	_, ok := AsValidationError(assert.AnError)
	assert.False(t, ok)
}

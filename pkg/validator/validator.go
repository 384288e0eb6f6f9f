package validator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

var (
	global *validator.Validate

	phoneRegex  = regexp.MustCompile(`^[0-9]{10}$`)
	cardRegex   = regexp.MustCompile(`^[0-9]{12,19}$`)
	cvvRegex    = regexp.MustCompile(`^[0-9]{3,4}$`)
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

const (
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

var eventTypes = map[string]struct{}{}

// ValidationError is the first failed rule of a struct, phrased for the
// person who filled the form.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", matchString(phoneRegex))
	_ = v.RegisterValidation("cardnumber", matchString(cardRegex))
	_ = v.RegisterValidation("cvv", matchString(cvvRegex))
	_ = v.RegisterValidation("expiry", matchString(expiryRegex))
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("clock", validateClock)
	_ = v.RegisterValidation("eventtype", validateEventType)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// SetEventTypes replaces the accepted values of the eventtype rule.
func SetEventTypes(types []string) {
	m := make(map[string]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	eventTypes = m
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func validateEventType(fl validator.FieldLevel) bool {
	_, ok := eventTypes[fl.Field().String()]
	return ok
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	field := ve.Field()

	var msg string
	switch ve.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = "Invalid email format"
	case "phone":
		msg = "Phone number must be exactly 10 digits"
	case "min":
		if ve.Kind() == reflect.String {
			msg = fmt.Sprintf("%s must be at least %s characters long", field, ve.Param())
		} else {
			msg = ErrFieldBelowMinVal + ": " + field
		}
	case "max":
		if ve.Kind() == reflect.String {
			msg = fmt.Sprintf("%s must be at most %s characters long", field, ve.Param())
		} else {
			msg = ErrFieldExceedsMaxVal + ": " + field
		}
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal + ": " + field
	case "gt", "gte":
		msg = ErrFieldBelowMinVal + ": " + field
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(ve.Param(), " ", ", "))
	case "cardnumber":
		msg = "Card number must be 12 to 19 digits"
	case "cvv":
		msg = "CVV must be 3 or 4 digits"
	case "expiry":
		msg = "Expiry date must be in MM/YY format"
	case "date":
		msg = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "clock":
		msg = fmt.Sprintf("%s must be a time in HH:MM format", field)
	case "eventtype":
		msg = fmt.Sprintf("%s is not a supported event type", field)
	default:
		msg = ErrUnknownValidation + ": " + field
	}
	return &ValidationError{Field: field, Tag: ve.Tag(), Message: msg}
}

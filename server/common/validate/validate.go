// Package validate checks tagged request structs and reports every violated
// field at once.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"attendance_server/server/common/apperr"
)

var alphaSpace = regexp.MustCompile(`^[a-zA-Z\s]+$`)

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
			return alphaSpace.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a validation run. The zero value is a pass.
type Result struct {
	Errors []FieldError
}

func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Error joins every field message with ", ".
func (r Result) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, ", ")
}

// Err returns nil for a passing result and an apperr validation error
// otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return apperr.Validation(r.Error())
}

// With puts extra in front of r. Errors r already holds for the same fields
// are dropped, so a field is reported once.
func (r Result) With(extra ...FieldError) Result {
	if len(extra) == 0 {
		return r
	}
	out := Result{Errors: append([]FieldError(nil), extra...)}
	for _, e := range r.Errors {
		if !slices.ContainsFunc(extra, func(x FieldError) bool { return x.Field == e.Field }) {
			out.Errors = append(out.Errors, e)
		}
	}
	return out
}

// Struct validates v. Callers trim input first with TrimStrings.
func Struct(v any) Result {
	err := engine().Struct(v)
	if err == nil {
		return Result{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}
	out := Result{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// TrimStrings trims every exported string and *string field of the struct
// pointed to by v.
func TrimStrings(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch {
		case f.Kind() == reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case f.Kind() == reflect.Pointer && !f.IsNil() && f.Elem().Kind() == reflect.String:
			f.Elem().SetString(strings.TrimSpace(f.Elem().String()))
		}
	}
}

func message(fe validator.FieldError) string {
	field := fmt.Sprintf("%q", fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "alphanum":
		return field + " must only contain alpha-numeric characters"
	case "alphaspace":
		return field + " must only contain letters and spaces"
	case "uuid", "uuid4":
		return field + " must be a valid id"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on the %q rule", field, fe.Tag())
	}
}

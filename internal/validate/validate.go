// Package validate holds the shared ValidationError type and the struct validator
// used by every handler that decodes a request body.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Failed builds a generic VALIDATION_FAILED error.
func Failed(message string) ValidationError {
	return ValidationError{Code: "VALIDATION_FAILED", Message: message}
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names instead of Go field names.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return Failed(err.Error())
	}
	f := fields[0]
	msg := fmt.Sprintf("%s failed %q", f.Field(), f.Tag())
	if f.Param() != "" {
		msg = fmt.Sprintf("%s failed %q (%s)", f.Field(), f.Tag(), f.Param())
	}
	return Failed(msg)
}

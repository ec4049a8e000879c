package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/booking-api/internal/model"
)

// FieldError is one failed binding rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required":          "Field is required",
	"email":             "Invalid email format",
	"url":               "Invalid URL",
	"min":               "Value is too small",
	"max":               "Value is too large",
	"gt":                "Value must be positive",
	"oneof":             "Value is not one of the allowed options",
	"user_type":         "Must be patient or doctor",
	"notification_type": "Unknown notification type",
}

var registerOnce sync.Once

// RegisterValidators installs the domain rules on gin's validator and
// reports fields by their json names. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator is not go-playground/validator")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})

		if err = v.RegisterValidation("user_type", func(fl validator.FieldLevel) bool {
			_, perr := model.ParseUserType(fl.Field().String())
			return perr == nil
		}); err != nil {
			return
		}
		err = v.RegisterValidation("notification_type", func(fl validator.FieldLevel) bool {
			_, perr := model.ParseNotificationType(fl.Field().String())
			return perr == nil
		})
	})
	return err
}

// FieldErrors flattens a binding error into per-field messages
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %q rule", e.Tag())
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

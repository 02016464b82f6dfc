package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that names fields after their json tag, so the
// keys of ToDetails match GraphQL input field names.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ToDetails flattens validation errors into field -> message.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"input": "invalid input"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

var fixed = map[string]string{
	"required": "is required",
	"notblank": "is required",
	"email":    "must be a valid email",
}

func message(fe validator.FieldError) string {
	if msg, ok := fixed[fe.Tag()]; ok {
		return msg
	}
	p := fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters long"
	}
	switch fe.Tag() {
	case "min":
		return "must be at least " + p + unit
	case "max":
		return "must be at most " + p + unit
	case "gte":
		return "must be greater than or equal to " + p
	case "lte":
		return "must be less than or equal to " + p
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(p), ", ")
	}
	if p != "" {
		return "failed " + fe.Tag() + "=" + p
	}
	return "failed " + fe.Tag()
}

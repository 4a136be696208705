package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their wire name: json, then query, then
// the Go field name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// RegisterValidation adds a custom tag, e.g. a domain enum check. Call it
// during initialisation, before requests are served.
func RegisterValidation(tag string, fn func(value string) bool, message string) error {
	if message != "" {
		tagMessages[tag] = message
	}
	return validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
}

// tagMessages holds "%s <text>" templates for custom tags.
var tagMessages = map[string]string{}

// ReadAndValidateRequest binds c into req, applies `default` tags and runs
// `validate` tags. It returns nil or []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	return ValidateStruct(c.Request().Context(), req)
}

// ValidateStruct applies defaults and validation tags to v outside of a
// request context. It returns nil or []ValidationError.
func ValidateStruct(ctx context.Context, v interface{}) interface{} {
	if err := defaults.Set(v); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(ctx, v); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fieldPath(fe),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: CodeBind, Message: fmt.Sprint(he.Message)}}
	}
	return []ValidationError{{Code: CodeBind, Message: err.Error()}}
}

// fieldPath drops the top-level struct name: "AnalyzeRequest.series[2].date"
// becomes "series[2].date".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	if tmpl, ok := tagMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		if unit := lengthUnit(fe.Kind()); unit != "" {
			return fmt.Sprintf("%s must have at least %s %s", field, fe.Param(), unit)
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if unit := lengthUnit(fe.Kind()); unit != "" {
			return fmt.Sprintf("%s must have at most %s %s", field, fe.Param(), unit)
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func lengthUnit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	}
	return ""
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "gt", "lt":
		return map[string]interface{}{"value": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	if _, custom := tagMessages[fe.Tag()]; custom {
		return map[string]interface{}{"value": fe.Value()}
	}
	return nil
}

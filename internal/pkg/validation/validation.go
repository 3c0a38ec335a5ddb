package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if n, ok := field.Interface().(nullableValue); ok {
			return n.validationValue()
		}
		return nil
	},
		Nullable[string]{},
		Nullable[int64]{},
		Nullable[bool]{},
		Nullable[time.Time]{},
	)

	v.RegisterAlias("currency", "len=3,alpha")
	return v
}

// Validator exposes the shared instance for packages with their own structs.
func Validator() *validator.Validate {
	return validate
}

// Struct validates s and converts failures into a caller-facing ValidationError.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.Internal("Validation failed", err)
	}
	fieldErrors := map[string][]string{}
	for _, fe := range verrs {
		fieldErrors[fe.Field()] = append(fieldErrors[fe.Field()], message(fe))
	}
	return apperror.Validation("Validation error", fiber.Map{"fieldErrors": fieldErrors})
}

// ParseBody decodes the JSON request body into dst and validates it.
func ParseBody(c *fiber.Ctx, dst any) error {
	body := c.Body()
	if len(body) == 0 {
		return apperror.Validation("Invalid JSON body", nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.Validation("Invalid JSON body", fiber.Map{"formErrors": []string{decodeMessage(err)}})
	}
	if d, ok := dst.(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}
	return Struct(dst)
}

// EmptyPatch is returned when a PATCH body carries no recognised field.
func EmptyPatch() error {
	return apperror.Validation("Validation error", fiber.Map{"formErrors": []string{"At least one field is required"}})
}

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit (1..100, default 50) and offset (>=0, default 0).
func ParsePagination(c *fiber.Ctx) (Pagination, error) {
	p := Pagination{Limit: DefaultLimit}
	fieldErrors := map[string][]string{}

	if raw := c.Query("limit"); raw != "" {
		n, err := parseInt(raw)
		switch {
		case err != nil:
			fieldErrors["limit"] = []string{"must be an integer"}
		case n < 1 || n > MaxLimit:
			fieldErrors["limit"] = []string{fmt.Sprintf("must be between 1 and %d", MaxLimit)}
		default:
			p.Limit = n
		}
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := parseInt(raw)
		switch {
		case err != nil:
			fieldErrors["offset"] = []string{"must be an integer"}
		case n < 0:
			fieldErrors["offset"] = []string{"must be 0 or greater"}
		default:
			p.Offset = n
		}
	}

	if len(fieldErrors) > 0 {
		return p, apperror.Validation("Invalid pagination", fiber.Map{"fieldErrors": fieldErrors})
	}
	return p, nil
}

// ParseTimeQuery reads an optional RFC3339 timestamp query parameter.
func ParseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.Validation("Invalid query parameter", fiber.Map{
			"fieldErrors": map[string][]string{key: {"must be an ISO 8601 datetime with offset"}},
		})
	}
	return &t, nil
}

// ParseEnumQuery reads an optional query parameter restricted to allowed values.
func ParseEnumQuery(c *fiber.Ctx, key string, allowed ...string) (string, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return "", nil
	}
	for _, a := range allowed {
		if raw == a {
			return raw, nil
		}
	}
	return "", apperror.Validation("Invalid query parameter", fiber.Map{
		"fieldErrors": map[string][]string{key: {"must be one of " + strings.Join(allowed, ", ")}},
	})
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: expected %s", typeErr.Field, typeErr.Type.String())
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return "invalid datetime, expected ISO 8601 with offset"
	}
	return "malformed JSON"
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return fmt.Sprintf("must be less than or equal to %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "len":
		return fmt.Sprintf("must be exactly %s characters", param)
	case "currency":
		return "must be a 3-letter currency code"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

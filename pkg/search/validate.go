package search

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yair/whats-on/pkg/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	catalogs := map[string][]string{
		"event_category": domain.Categories,
		"event_mode":     domain.Modes,
	}
	for tag, allowed := range catalogs {
		allowed := allowed
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return slices.Contains(allowed, fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

// ValidateFilters checks category and mode against their catalogs.
func ValidateFilters(filters domain.FilterState) error {
	err := validate.Struct(filters)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("unsupported value %q", fe.Value()),
		}
	}
	return fmt.Errorf("failed to validate filters: %w", err)
}

package media

import (
	stdErrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lepinkainen/naoka/internal/errors"
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

	mustRegister(v, "mediatype", func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).Valid()
	})
	mustRegister(v, "status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	mustRegister(v, "genre", func(fl validator.FieldLevel) bool {
		return Genre(fl.Field().String()).Valid()
	})
	mustRegister(v, "mediaformat", func(fl validator.FieldLevel) bool {
		return Format(fl.Field().String()).Valid()
	})
	mustRegister(v, "rating", func(fl validator.FieldLevel) bool {
		return Rating(fl.Field().String()).Valid()
	})
	mustRegister(v, "identitykey", func(fl validator.FieldLevel) bool {
		return Key(fl.Field().String()).Validate() == nil
	})

	v.RegisterStructValidation(validateRecord, Record{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func validateRecord(sl validator.StructLevel) {
	r := sl.Current().Interface().(Record)

	if !r.Titles.Any() {
		sl.ReportError(r.Titles, "titles", "Titles", "anytitle", "")
	}
	if !r.Images.Any() {
		sl.ReportError(r.Images, "images", "Images", "anyimage", "")
	}
	if r.Duration != nil && *r.Duration < 0 {
		sl.ReportError(r.Duration, "duration", "Duration", "gte", "0")
	}
}

var reasons = map[string]string{
	"anytitle":    "no title candidates",
	"anyimage":    "no image candidates",
	"mediatype":   "unknown media type",
	"status":      "unknown status",
	"genre":       "unknown genre",
	"mediaformat": "unknown format",
	"rating":      "unknown rating",
	"identitykey": "malformed identity key",
	"unique":      "duplicate values",
	"url":         "not a valid URL",
	"gte":         "must not be negative",
}

// Validate checks every field invariant of r. Uniqueness of the identity key
// across the store is not checked here. The first violation is returned as a
// BuildError naming the field.
func Validate(r Record) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate record: %w", err)
	}

	fe := fieldErrs[0]
	reason, ok := reasons[fe.Tag()]
	if !ok {
		reason = fmt.Sprintf("failed %s validation", fe.Tag())
	}

	buildErr := errors.NewBuildError(fieldName(fe.Namespace()), reason)
	buildErr.Key = string(r.Key)
	return buildErr
}

// fieldName drops the leading struct name from a validator namespace.
func fieldName(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// validate returns the shared validator. Field errors are reported with the
// JSON names of the configuration document.
func validate() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		structValidator = v
	})
	return structValidator
}

// decodeAndCheck decodes cfg into out and applies its struct tags.
func decodeAndCheck(cfg usecase.Config, out any) error {
	if err := cfg.Decode(out); err != nil {
		return engine.NewValidationErrorf("Invalid configuration: %s", decodeMessage(err))
	}
	return checkStruct(out)
}

func checkStruct(s any) error {
	err := validate().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return engine.NewValidationErrorf("Invalid configuration: %v", err)
	}
	return engine.NewValidationError(fieldMessage(fieldErrs[0]))
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	path := fieldPath(fe)
	switch fe.Tag() {
	case "required", "required_with":
		return fmt.Sprintf(MsgFieldRequired, path)
	case "oneof":
		return fmt.Sprintf(MsgFieldOneOf, path, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eq":
		return fmt.Sprintf(MsgFieldEqual, path, fe.Param())
	case "unique":
		return fmt.Sprintf(MsgFieldUnique, path)
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf(MsgFieldMinItems, path, fe.Param())
		}
		return fmt.Sprintf(MsgFieldRange, path, fe.Tag(), fe.Param())
	case "max":
		switch {
		case isCollection(fe.Kind()):
			return fmt.Sprintf(MsgFieldMaxItems, path, fe.Param())
		case fe.Kind() == reflect.String:
			return fmt.Sprintf(MsgFieldMaxLen, path, fe.Param())
		}
		return fmt.Sprintf(MsgFieldRange, path, fe.Tag(), fe.Param())
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf(MsgFieldRange, path, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf(MsgFieldFormat, path)
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return err.Error()
}

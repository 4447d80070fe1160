// Package validation checks request payloads against declarative schemas.
// Validation is fail-fast: only the first failing field is reported.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperr "scheduler/internal/errors"
)

const (
	// DefaultDayOfWeekMax allows Monday (1) through Sunday (7).
	DefaultDayOfWeekMax = 7
	// WeekdaysOnly allows Monday (1) through Friday (5).
	WeekdaysOnly = 5
)

var (
	passwordPattern    = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&]{4,30}$`)
	displayNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._ ]{2,12}$`)
)

// Validator validates payloads. It holds no per-call state and is safe for
// concurrent use.
type Validator struct {
	validate     *validator.Validate
	dayOfWeekMax int
}

// New builds a Validator. dayOfWeekMax bounds dayOfWeek to 1..dayOfWeekMax;
// values outside 1..7 fall back to DefaultDayOfWeekMax.
func New(dayOfWeekMax int) *Validator {
	if dayOfWeekMax < 1 || dayOfWeekMax > 7 {
		dayOfWeekMax = DefaultDayOfWeekMax
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
		return validDisplayName(fl.Field().String())
	})
	_ = v.RegisterValidation("dotteddomain", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		at := strings.LastIndex(s, "@")
		if at < 0 {
			return false
		}
		domain := s[at+1:]
		return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		day := fl.Field().Int()
		return day >= 1 && day <= int64(dayOfWeekMax)
	})

	return &Validator{validate: v, dayOfWeekMax: dayOfWeekMax}
}

// DayOfWeekMax is the configured upper bound of dayOfWeek.
func (v *Validator) DayOfWeekMax() int {
	return v.dayOfWeekMax
}

// Validate checks payload (a pointer to or value of one of the payload
// structs). It returns nil or an *apperr.Error of KindValidation whose
// message names the first failing field.
func (v *Validator) Validate(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation(v.message(fieldErrs[0]))
	}
	return apperr.Validation("invalid payload")
}

func (v *Validator) message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "email", "dotteddomain":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "password":
		return fmt.Sprintf("%s must be 4-30 characters of letters, digits or !@#$%%^&", field)
	case "displayname":
		return fmt.Sprintf("%s must be 2-12 characters of letters, digits, '.', '_' or spaces, not starting or ending with '.' or a space", field)
	case "weekday":
		return fmt.Sprintf("%s must be between 1 and %d", field, v.dayOfWeekMax)
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, jsonName(fe.Param()))
	case "uuid":
		return fmt.Sprintf("%s must be a valid event id", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		case reflect.String:
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the top-level struct name from the namespace, so
// "DeleteEvents.eventIds[1]" becomes "eventIds[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// jsonName lower-cases the first letter of a Go field name used as a
// validator param (gtfield=StartAt -> startAt).
func jsonName(goName string) string {
	if goName == "" {
		return goName
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}

func validDisplayName(s string) bool {
	if !displayNamePattern.MatchString(s) {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first != '.' && first != ' ' && last != '.' && last != ' '
}

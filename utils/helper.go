package utils

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var (
	validate     = validator.New()
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizePhoneNumber validates the number for the region and returns it in E.164.
func NormalizePhoneNumber(phoneNumber, countryCode string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return "", err
	}

	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}

	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// ValidateStruct runs the `validate` tags of input.
func ValidateStruct(input any) error {
	return validate.Struct(input)
}

// DescribeValidationErrors flattens validator errors into "Field: tag" pairs.
func DescribeValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		if ve.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", ve.Field(), ve.Tag(), ve.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", ve.Field(), ve.Tag()))
		}
	}
	return "invalid input (" + strings.Join(parts, ", ") + ")"
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]bool, len(slice))
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// ConvertToDate returns midnight of t's calendar day in timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = "Asia/Singapore"
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)
	return time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location), nil
}

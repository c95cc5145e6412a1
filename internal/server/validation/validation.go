// Package validation checks request payloads against their struct tags and
// cleans free-text fields before they are stored.
package validation

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// FieldError describes one rejected field, named as it appears in JSON.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param != "" {
		return fmt.Sprintf("%s: %s=%s", f.Field, f.Rule, f.Param)
	}
	return fmt.Sprintf("%s: %s", f.Field, f.Rule)
}

// Errors is returned for invalid payloads. It matches common.ErrorValidation.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, f := range e {
		parts[i] = f.String()
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e Errors) Unwrap() error { return common.ErrorValidation }

type Validator struct {
	v      *validator.Validate
	policy *bluemonday.Policy
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
		}
		return name
	})
	return &Validator{v: v, policy: bluemonday.StrictPolicy()}
}

// Struct validates s. Failures come back as Errors.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// Text strips markup and surrounding whitespace from user-supplied text.
// Entities produced by the sanitizer are decoded again since the result is
// stored as plain text.
func (v *Validator) Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(s)))
}

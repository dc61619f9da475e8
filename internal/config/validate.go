package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the registry against its field rules and rejects
// duplicate devices.
func (r *Registry) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("validate config: %w", describe(err))
	}

	seen := make(map[string]string, len(r.Devices))
	names := make(map[string]bool, len(r.Devices))
	for _, d := range r.Devices {
		key := d.Type + "#" + d.ID
		if other, dup := seen[key]; dup {
			return fmt.Errorf("validate config: %w: %q and %q are both %s #%s", ErrDuplicateDevice, other, d.Name, d.Type, d.ID)
		}
		seen[key] = d.Name

		lower := strings.ToLower(d.Name)
		if names[lower] {
			return fmt.Errorf("validate config: %w: name %q used twice", ErrDuplicateDevice, d.Name)
		}
		names[lower] = true
	}
	return nil
}

// describe flattens validator errors into one readable line
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Registry.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed required input.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// NotFoundError reports a reference to an absent entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PreconditionError reports an operation invoked out of sequence.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// RequireFields returns a ValidationError naming every empty field, in the
// order given, or nil when all are present.
func RequireFields(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if !f.Present {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}

// Field pairs a field name with whether it was supplied.
type Field struct {
	Name    string
	Present bool
}

// StringField is a Field for a string value, whitespace counts as absent.
func StringField(name, value string) Field {
	return Field{Name: name, Present: strings.TrimSpace(value) != ""}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}

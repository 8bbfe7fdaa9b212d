// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate checks auth request payloads in handlers and reports every
// failing field at once as a single VALIDATION_ERROR.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/sec"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// canonicalUUIDLength excludes the urn, braced and undashed forms uuid.Parse accepts.
const canonicalUUIDLength = 36

// Validator accumulates field errors through a chain of checks. Use one per
// request.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if value has more than max characters.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if value has fewer than min characters.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Password applies the password rules: present, at least minChars
// characters, and no longer than bcrypt accepts in bytes.
func (v *Validator) Password(field, value string, minChars int) *Validator {
	switch {
	case value == "":
		v.add(field, "This field is required")
	case utf8.RuneCountInString(value) < minChars:
		v.add(field, fmt.Sprintf("Minimum %d characters", minChars))
	case len(value) > sec.MaxPasswordBytes:
		v.add(field, fmt.Sprintf("Maximum %d bytes", sec.MaxPasswordBytes))
	}
	return v
}

// Email fails if value is not a bare RFC 5322 address. Display-name forms
// such as "Mai <mai@acme.test>" are rejected.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	if err != nil || address.Address != strings.TrimSpace(value) {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// UUID fails unless value is a canonical 8-4-4-4-12 UUID (any case).
func (v *Validator) UUID(field, value string) *Validator {
	if len(value) != canonicalUUIDLength {
		v.add(field, "Must be a valid UUID")
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// Custom records message for field when failed is true.
//
//	v.Custom("new_password", next == current, "Must differ from the current password")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns VALIDATION_ERROR with every collected field, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any check has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// FieldError builds a VALIDATION_ERROR for a single field.
func FieldError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}

// Package policy enforces the password composition rules and the
// common-password blocklist.
package policy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/barleygate/barleygate/internal/store"
)

// Reason identifies which rule a candidate password violated.
type Reason string

const (
	ReasonTooShort    Reason = "too_short"
	ReasonNoUppercase Reason = "no_uppercase"
	ReasonNoLowercase Reason = "no_lowercase"
	ReasonNoDigit     Reason = "no_digit"
	ReasonNoSpecial   Reason = "no_special"
	ReasonSeparator   Reason = "separator"
	ReasonBlocklisted Reason = "blocklisted"
)

// MinLength is the minimum accepted password length.
const MinLength = 12

// specialCharacters is the fixed set of accepted special characters.
const specialCharacters = "`~!@#$%^&*()-_+=[]{}\\|;\"'<>,.?/"

// ValidationError reports a policy violation with a user-facing message.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validator checks candidate passwords against the composition rules and an
// external blocklist of common passwords.
type Validator struct {
	blocklistPath string
}

// NewValidator creates a Validator reading its blocklist from the given
// file. The file is a read-only external resource and is re-read on every
// Validate call so edits take effect without a restart.
func NewValidator(blocklistPath string) *Validator {
	return &Validator{blocklistPath: blocklistPath}
}

// Validate checks the password against every rule in a fixed order, cheapest
// first, and returns the first violation as a *ValidationError. Any other
// error means the blocklist could not be read.
func (v *Validator) Validate(password string) error {
	if len(password) < MinLength {
		return &ValidationError{ReasonTooShort, fmt.Sprintf("Password must be %d or more characters in length.", MinLength)}
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return &ValidationError{ReasonNoUppercase, "Password must contain an upper case character."}
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return &ValidationError{ReasonNoLowercase, "Password must contain a lower case character."}
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return &ValidationError{ReasonNoDigit, "Password must contain a digit."}
	}
	if !strings.ContainsAny(password, specialCharacters) {
		return &ValidationError{ReasonNoSpecial, "Password must contain a special character."}
	}
	if strings.Contains(password, store.Separator) {
		return &ValidationError{ReasonSeparator, fmt.Sprintf("Password cannot contain %q.", store.Separator)}
	}

	blocked, err := v.loadBlocklist()
	if err != nil {
		return err
	}
	if _, found := blocked[password]; found {
		return &ValidationError{ReasonBlocklisted, "Password is on the common password list."}
	}
	return nil
}

package services

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Form holds the transient input state of the login/registration screen. It
// is owned exclusively by the SessionController and never persisted.
type Form struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string

	// Visibility toggles for the password fields (mirrors the eye icon on
	// the mobile form).
	ShowPassword        bool
	ShowConfirmPassword bool
}

// validateLogin checks the minimum needed before a login submission. Format
// and length checks are deferred to the server.
func (f Form) validateLogin() error {
	if err := validation.Validate(f.Email,
		validation.Required.Error(msgEmailRequired),
	); err != nil {
		return err
	}
	if err := validation.Validate(f.Password,
		validation.Required.Error(msgPasswordRequired),
	); err != nil {
		return err
	}
	return nil
}

// validateRegistration runs the registration checks in a fixed order and
// stops at the first failure, so the user always sees a single deterministic
// message when several fields are invalid.
func (f Form) validateRegistration() error {
	if err := validation.Validate(f.Username,
		validation.Required.Error(msgUsernameRequired),
	); err != nil {
		return err
	}
	if err := validation.Validate(f.Email,
		validation.Required.Error(msgEmailRequired),
	); err != nil {
		return err
	}
	if err := validation.Validate(f.Email,
		is.Email.Error(msgEmailInvalid),
	); err != nil {
		return err
	}
	if err := validation.Validate(f.Password,
		validation.Required.Error(msgPasswordTooShort),
		validation.Length(8, 0).Error(msgPasswordTooShort),
	); err != nil {
		return err
	}
	if err := validation.Validate(f.ConfirmPassword,
		validation.By(stringEquals(f.Password, msgPasswordMismatch)),
	); err != nil {
		return err
	}
	return nil
}

// stringEquals builds a rule that checks the value equals expected.
func stringEquals(expected, msg string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New(msg)
		}
		return nil
	}
}

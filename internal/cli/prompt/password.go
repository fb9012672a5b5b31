package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

var errEmptyPassword = errors.New("password must not be empty")

// Password reads a masked secret. The typed value is not echoed back once
// entered. allowEmpty accepts an empty reply, for servers using trust
// authentication.
func Password(label string, allowEmpty bool) (string, error) {
	p := promptui.Prompt{
		Label:       label,
		Mask:        '*',
		HideEntered: true,
		Validate:    validatePassword(allowEmpty),
	}

	result, err := p.Run()
	return result, wrapError(err)
}

func validatePassword(allowEmpty bool) promptui.ValidateFunc {
	return func(s string) error {
		if s == "" && !allowEmpty {
			return errEmptyPassword
		}
		return nil
	}
}

package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// Confirm asks a yes/no question. An empty reply takes defaultYes.
// Ctrl+C returns ErrAborted.
func Confirm(label string, defaultYes bool) (bool, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	_, err := p.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		// promptui reports any reply other than "y" this way.
		return false, nil
	default:
		return false, wrapError(err)
	}
}

// ConfirmReplace asks before existing data named by what is overwritten.
// force answers yes without asking. Without a terminal it returns
// ErrNotInteractive rather than waiting on a pipe.
func ConfirmReplace(what string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !Interactive() {
		return false, ErrNotInteractive
	}
	return Confirm(replaceLabel(what), false)
}

func replaceLabel(what string) string {
	return fmt.Sprintf("%s already exists. Replace it", what)
}

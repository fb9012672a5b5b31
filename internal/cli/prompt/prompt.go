// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/marmos91/xptkit/internal/logger"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// ErrNotInteractive is returned when a prompt is needed but stdin is not a
// terminal, e.g. when the dataset itself is piped in.
var ErrNotInteractive = errors.New("input required but stdin is not a terminal")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt errors to ErrAborted for consistent handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Interactive reports whether prompts can be shown.
func Interactive() bool {
	return logger.IsTerminal(os.Stdin)
}

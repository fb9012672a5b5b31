package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/marmos91/xptkit/internal/cli/prompt"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("xpt: missing library header")))
	assert.Equal(t, 130, exitCode(prompt.ErrAborted))
	assert.Equal(t, 130, exitCode(fmt.Errorf("export: %w", context.Canceled)))
}

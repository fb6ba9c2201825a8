package oracle

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyOutput = errors.New("oracle: helper produced no output")

// BuildError reports a failed helper compilation.
type BuildError struct {
	Command []string
	Output  string
	Err     error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("oracle: build %q failed: %v", strings.Join(e.Command, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// InvokeError reports a helper run that could not start or exited non-zero.
type InvokeError struct {
	Kind   Kind
	Stderr string
	Err    error
}

func (e *InvokeError) Error() string {
	msg := fmt.Sprintf("oracle: helper %s failed: %v", e.Kind, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *InvokeError) Unwrap() error { return e.Err }

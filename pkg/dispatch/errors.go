package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Registry errors.
var (
	// ErrSealed is returned when registering on a sealed registry.
	ErrSealed = fault.Configuration("registry", errors.New("registry is sealed"))

	// ErrUnknownCommand is returned when calling a name that is not registered.
	ErrUnknownCommand = fault.Configuration("registry", errors.New("unknown command"))
)

// UnknownCommandError reports allow-list tokens missing from a vocabulary.
type UnknownCommandError struct {
	Tokens []string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command token(s) in allow-list: %s", strings.Join(e.Tokens, " "))
}

// Is reports whether target is fault.ErrConfiguration.
func (e *UnknownCommandError) Is(target error) bool { return target == fault.ErrConfiguration }

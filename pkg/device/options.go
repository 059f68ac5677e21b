package device

import (
	"github.com/ogameasure/ogameasure-go/pkg/dispatch"
	"github.com/ogameasure/ogameasure-go/pkg/log"
)

// Option configures a Device.
type Option func(*options)

type options struct {
	logger     log.Logger
	errorCheck *bool
	commands   []Command
}

// Command is a driver operation to register on the Device.
type Command struct {
	// Name is the canonical method name, e.g. SetFrequency.
	Name string

	// Token is the wire mnemonic the shortcut is derived from, e.g. FREQ.
	// Empty registers the name only.
	Token string

	// Description is the one-line summary shown by Describe.
	Description string

	// Handler runs the operation.
	Handler dispatch.Handler
}

// WithLogger sets the protocol capture logger for command events.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorCheck enables or disables the SYST:ERR? round trip after
// WriteChecked. It defaults to on when the model has an error table.
func WithErrorCheck(on bool) Option {
	return func(o *options) { o.errorCheck = &on }
}

// WithCommands registers driver operations after the common commands.
func WithCommands(cmds ...Command) Option {
	return func(o *options) { o.commands = append(o.commands, cmds...) }
}

// Package console provides the interactive shell of scpi-console.
package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ogameasure/ogameasure-go/pkg/instrument"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Shell executes console lines against one driver.
type Shell struct {
	drv instrument.Driver
	out io.Writer
}

// NewShell returns a shell writing results to out.
func NewShell(drv instrument.Driver, out io.Writer) *Shell {
	return &Shell{drv: drv, out: out}
}

// Execute runs one input line and reports whether the shell should exit.
// Lines that do not start with a shell command are sent to the
// instrument as is: a line containing '?' is queried, any other line is
// written.
func (s *Shell) Execute(line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(cmd) {
	case "help":
		s.printHelp()
	case "write", "w":
		s.cmdWrite(rest)
	case "query", "q":
		s.cmdQuery(rest)
	case "read", "r":
		s.cmdRead()
	case "call", "c":
		s.cmdCall(args)
	case "list", "ls":
		s.cmdList(args)
	case "describe":
		if err := s.drv.Describe(s.out); err != nil {
			s.fail(err)
		}
	case "info":
		s.cmdInfo()
	case "addr":
		s.cmdAddr(args)
	case "term":
		s.cmdTerm(args)
	case "quit", "exit":
		return true
	default:
		if strings.Contains(input, "?") {
			s.cmdQuery(input)
		} else {
			s.cmdWrite(input)
		}
	}
	return false
}

func (s *Shell) fail(err error) {
	fmt.Fprintf(s.out, "Error: %v\n", err)
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Console Commands:
  write <line>         - Send a command line
  query <line>         - Send a line and print the reply
  read                 - Read one reply line
  call <name> [args]   - Run a registered command by name or shortcut
  list [filter]        - List registered commands
  describe             - Print the command table
  info                 - Show model and link state
  addr [n]             - Show or select the GPIB bus address
  term <lf|crlf|cr>    - Change the line terminator
  quit                 - Close the instrument and exit

Any other line is sent to the instrument: lines containing '?' are
queried, the rest are written.`)
}

func (s *Shell) cmdWrite(line string) {
	if line == "" {
		fmt.Fprintln(s.out, "Usage: write <line>")
		return
	}
	if err := s.drv.Write(line); err != nil {
		s.fail(err)
	}
}

func (s *Shell) cmdQuery(line string) {
	if line == "" {
		fmt.Fprintln(s.out, "Usage: query <line>")
		return
	}
	reply, err := s.drv.Query(line)
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, reply)
}

func (s *Shell) cmdRead() {
	line, err := s.drv.Transport().ReadLine()
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, strings.TrimSpace(line))
}

func (s *Shell) cmdCall(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: call <name> [args...]")
		return
	}
	result, err := s.drv.Call(args[0], args[1:]...)
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, FormatResult(result))
}

func (s *Shell) cmdList(args []string) {
	filter := ""
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}
	for _, e := range s.drv.Commands() {
		if filter != "" &&
			!strings.Contains(strings.ToLower(e.Name), filter) &&
			!strings.Contains(strings.ToLower(e.Token), filter) {
			continue
		}
		fmt.Fprintf(s.out, "  %-36s %-14s %s\n", e.Name, e.Shortcut, e.Token)
	}
}

func (s *Shell) cmdInfo() {
	m := s.drv.Model()
	t := s.drv.Transport()
	if name := m.String(); name != "" {
		fmt.Fprintf(s.out, "Model:      %s (%s)\n", m.Key, name)
	} else {
		fmt.Fprintf(s.out, "Model:      %s\n", m.Key)
	}
	fmt.Fprintf(s.out, "Family:     %s\n", m.Family)
	fmt.Fprintf(s.out, "Resource:   %s\n", t.Resource())
	fmt.Fprintf(s.out, "Medium:     %s\n", t.Medium())
	fmt.Fprintf(s.out, "State:      %s\n", t.State())
	fmt.Fprintf(s.out, "Terminator: %q\n", t.Terminator())
	if id := transport.ConnectionID(t); id != "" {
		fmt.Fprintf(s.out, "Connection: %s\n", id)
	}
}

func (s *Shell) cmdAddr(args []string) {
	p, ok := s.drv.Transport().(*transport.Prologix)
	if !ok {
		fmt.Fprintln(s.out, "Error: not a GPIB link")
		return
	}
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Address: %d\n", p.Address())
		return
	}
	addr, err := strconv.Atoi(args[0])
	if err != nil {
		s.fail(fmt.Errorf("invalid address %q", args[0]))
		return
	}
	if err := p.SetAddress(addr); err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "Address: %d\n", addr)
}

// terminators maps term argument names to line terminators.
var terminators = map[string]string{
	"lf":   "\n",
	"crlf": "\r\n",
	"cr":   "\r",
}

func (s *Shell) cmdTerm(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Terminator: %q\n", s.drv.Transport().Terminator())
		return
	}
	term, ok := terminators[strings.ToLower(args[0])]
	if !ok {
		fmt.Fprintln(s.out, "Usage: term <lf|crlf|cr>")
		return
	}
	s.drv.Transport().SetTerminator(term)
}

// FormatResult renders a command result for display.
func FormatResult(v any) string {
	switch r := v.(type) {
	case nil:
		return "OK"
	case string:
		return r
	case []string:
		return strings.Join(r, ", ")
	case float64:
		return strconv.FormatFloat(r, 'g', -1, 64)
	case fmt.Stringer:
		return r.String()
	default:
		return fmt.Sprintf("%+v", r)
	}
}

// completer offers shell commands and every registered command name.
func completer(drv instrument.Driver) *readline.PrefixCompleter {
	var names []string
	for _, e := range drv.Commands() {
		names = append(names, e.Name)
		if e.Shortcut != "" {
			names = append(names, e.Shortcut)
		}
	}
	sort.Strings(names)

	callItems := make([]readline.PrefixCompleterInterface, len(names))
	for i, n := range names {
		callItems[i] = readline.PcItem(n)
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("call", callItems...),
		readline.PcItem("write"),
		readline.PcItem("query"),
		readline.PcItem("read"),
		readline.PcItem("list"),
		readline.PcItem("describe"),
		readline.PcItem("info"),
		readline.PcItem("addr"),
		readline.PcItem("term", readline.PcItem("lf"), readline.PcItem("crlf"), readline.PcItem("cr")),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Config configures the interactive loop.
type Config struct {
	// Prompt defaults to "<model key>> ".
	Prompt string

	// HistoryFile keeps input history across sessions when set.
	HistoryFile string
}

// Console is the interactive readline front end of a Shell.
type Console struct {
	shell *Shell
	rl    *readline.Instance
}

// New creates a console for drv.
func New(drv instrument.Driver, config Config) (*Console, error) {
	prompt := config.Prompt
	if prompt == "" {
		prompt = drv.Model().Key + "> "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     config.HistoryFile,
		AutoComplete:    completer(drv),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{shell: NewShell(drv, rl.Stdout()), rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads lines until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) {
	defer c.rl.Close()

	fmt.Fprintln(c.rl.Stdout(), "Type 'help' for commands.")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}
		if c.shell.Execute(line) {
			return
		}
	}
}

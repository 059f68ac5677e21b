package scpi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

//go:embed errtables/*.yaml
var errTableFS embed.FS

// ErrorEntry is one known error code.
type ErrorEntry struct {
	Code        int    `yaml:"code"`
	Message     string `yaml:"message"`
	Explanation string `yaml:"explanation,omitempty"`
}

// ErrorTable resolves error queue codes to vendor messages.
type ErrorTable struct {
	Name   string       `yaml:"name"`
	Source string       `yaml:"source"`
	Errors []ErrorEntry `yaml:"errors"`

	byCode map[int]ErrorEntry
	byMsg  map[string]ErrorEntry
}

// LoadErrorTable decodes a YAML error table. Unknown fields and duplicate
// codes are configuration faults.
func LoadErrorTable(r io.Reader) (*ErrorTable, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t ErrorTable
	if err := dec.Decode(&t); err != nil {
		return nil, fault.Configuration("load error table", err)
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *ErrorTable) index() error {
	t.byCode = make(map[int]ErrorEntry, len(t.Errors))
	t.byMsg = make(map[string]ErrorEntry, len(t.Errors))
	for _, e := range t.Errors {
		if e.Code == 0 {
			return fault.Configurationf("error table "+t.Name, "code 0 is reserved for no error")
		}
		if _, dup := t.byCode[e.Code]; dup {
			return fault.Configurationf("error table "+t.Name, "duplicate code %d", e.Code)
		}
		t.byCode[e.Code] = e
		t.byMsg[strings.ToLower(e.Message)] = e
	}
	return nil
}

// Lookup returns the entry for code.
func (t *ErrorTable) Lookup(code int) (ErrorEntry, bool) {
	e, ok := t.byCode[code]
	return e, ok
}

// Check returns nil for code 0, otherwise an *fault.InstrumentError with
// the table's explanation when the code or message is known.
func (t *ErrorTable) Check(code int, msg string) error {
	if code == 0 {
		return nil
	}
	ie := &fault.InstrumentError{Code: code, Message: msg}
	if t == nil {
		return ie
	}
	ie.Source = t.Source
	e, ok := t.byCode[code]
	if !ok {
		e, ok = t.byMsg[strings.ToLower(strings.TrimSpace(msg))]
	}
	if ok {
		ie.Message = e.Message
		ie.Explanation = e.Explanation
	}
	return ie
}

// BuiltinErrorTable returns an embedded table by name.
func BuiltinErrorTable(name string) (*ErrorTable, error) {
	data, err := errTableFS.ReadFile(path.Join("errtables", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fault.Configurationf("error table", "unknown table %q", name)
		}
		return nil, fault.Configuration("error table", err)
	}
	return LoadErrorTable(bytes.NewReader(data))
}

// BuiltinErrorTables lists the embedded table names.
func BuiltinErrorTables() []string {
	entries, _ := errTableFS.ReadDir("errtables")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names
}

// SystemError reads one entry from the SYST:ERR? queue.
func SystemError(c Conn) (int, string, error) {
	reply, err := c.Query("SYST:ERR?")
	if err != nil {
		return 0, "", err
	}
	return ParseSystemError(reply)
}

// ParseSystemError splits a `<code>,"<message>"` reply.
func ParseSystemError(reply string) (int, string, error) {
	f := Fields(reply)
	if len(f) < 2 {
		return 0, "", fault.Protocol("parse SYST:ERR?", fmt.Errorf("malformed reply %q", reply))
	}
	code, err := ParseInt(f[0])
	if err != nil {
		return 0, "", err
	}
	return code, strings.Join(f[1:], ","), nil
}

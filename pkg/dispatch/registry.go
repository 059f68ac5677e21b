package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Handler executes a registered command. Arguments are the textual
// parameters typed by the caller; the result is the parsed reply or nil.
type Handler func(args ...string) (any, error)

// Entry is one registered command.
type Entry struct {
	// Name is the canonical method name, e.g. IdentificationQuery.
	Name string

	// Shortcut is derived from Token, e.g. IDNQ.
	Shortcut string

	// Token is the wire mnemonic, e.g. *IDN?.
	Token string

	// Handler runs the command.
	Handler Handler
}

// Registry binds names, shortcuts and aliases to handlers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry // by canonical name
	lookup  map[string]string // name, shortcut or alias -> canonical name
	sealed  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		lookup:  make(map[string]string),
	}
}

// Register binds name and the shortcut derived from token to h. A later
// registration of the same name or shortcut replaces the earlier one.
func (r *Registry) Register(name, token string, h Handler) error {
	if name == "" || h == nil {
		return fault.Configurationf("register", "%q: name and handler are required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}

	if old, ok := r.entries[name]; ok && old.Shortcut != "" && r.lookup[old.Shortcut] == name {
		delete(r.lookup, old.Shortcut)
	}

	e := &Entry{Name: name, Token: token, Handler: h}
	if token != "" {
		e.Shortcut = Shortcut(token)
	}
	r.entries[name] = e
	r.lookup[name] = name
	if e.Shortcut != "" {
		r.lookup[e.Shortcut] = name
	}
	return nil
}

// Alias makes alias resolve to the registered command name.
func (r *Registry) Alias(alias, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("alias %q: %w: %s", alias, ErrUnknownCommand, name)
	}
	r.lookup[alias] = name
	return nil
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the registry is frozen.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup resolves a name, shortcut or alias.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical, ok := r.lookup[name]
	if !ok {
		return Entry{}, false
	}
	return *r.entries[canonical], true
}

// Call resolves name and runs its handler.
func (r *Registry) Call(name string, args ...string) (any, error) {
	e, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return e.Handler(args...)
}

// Names returns the canonical names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Shortcuts returns the derived shortcuts, sorted.
func (r *Registry) Shortcuts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, e := range r.entries {
		if e.Shortcut != "" && r.lookup[e.Shortcut] == e.Name {
			out = append(out, e.Shortcut)
		}
	}
	sort.Strings(out)
	return out
}

// Aliases returns every alias that is neither a name nor a shortcut,
// mapped to its canonical name.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string)
	for k, name := range r.lookup {
		if k == name {
			continue
		}
		if e := r.entries[name]; e.Shortcut == k {
			continue
		}
		out[k] = name
	}
	return out
}

// Entries returns the registered commands sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

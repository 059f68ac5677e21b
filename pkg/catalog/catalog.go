package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"maps"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

//go:embed catalog.yaml
var builtin []byte

// Catalog is an immutable set of model records keyed by Model.Key.
type Catalog struct {
	models map[string]*Model
}

type file struct {
	Models []Model `yaml:"models"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(builtin))
		if err != nil {
			panic("catalog: embedded catalog.yaml: " + err.Error())
		}
		defaultCat = c
	})
	return defaultCat
}

// Load decodes a catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fault.Configuration("load catalog", err)
	}

	c := &Catalog{models: make(map[string]*Model, len(f.Models))}
	for i := range f.Models {
		m := f.Models[i]
		if err := m.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(m.Key)
		if _, dup := c.models[key]; dup {
			return nil, fault.Configurationf("load catalog", "duplicate model key %q", m.Key)
		}
		c.models[key] = &m
	}
	return c, nil
}

// LoadFile decodes a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Configuration("load catalog", err)
	}
	defer f.Close()
	return Load(f)
}

// Merge returns a catalog holding the records of c and other. Records of
// other replace records of c with the same key.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{models: make(map[string]*Model, len(c.models))}
	maps.Copy(out.models, c.models)
	if other != nil {
		maps.Copy(out.models, other.models)
	}
	return out
}

// Lookup returns a copy of the record for key (case-insensitive).
func (c *Catalog) Lookup(key string) (*Model, bool) {
	m, ok := c.models[strings.ToLower(key)]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

// MustLookup is Lookup for keys known to be in the catalog.
func (c *Catalog) MustLookup(key string) *Model {
	m, ok := c.Lookup(key)
	if !ok {
		panic("catalog: unknown model " + key)
	}
	return m
}

// Keys returns every record key, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.models))
	for _, m := range c.models {
		keys = append(keys, m.Key)
	}
	sort.Strings(keys)
	return keys
}

// ByFamily returns copies of the records of family f, sorted by key.
func (c *Catalog) ByFamily(f string) []*Model {
	var out []*Model
	for _, m := range c.models {
		if m.Family == f {
			out = append(out, m.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.models) }

func (m *Model) clone() *Model {
	out := *m
	out.Aliases = maps.Clone(m.Aliases)
	out.Limits = maps.Clone(m.Limits)
	out.Options = maps.Clone(m.Options)
	out.Channels = slices.Clone(m.Channels)
	if m.Transport.GPIBAddress != nil {
		a := *m.Transport.GPIBAddress
		out.Transport.GPIBAddress = &a
	}
	return &out
}

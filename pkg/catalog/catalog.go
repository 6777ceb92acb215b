// Package catalog loads and serves the static source catalog: every
// relational source the engine can route to, with its keyword profile,
// connection settings, and query templates. The catalog is immutable after
// load; catalog order is the canonical response order for fan-outs.
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
)

// Keyword is a domain term that attributes questions to a source.
type Keyword struct {
	Term   string
	Weight int
}

// UnmarshalYAML accepts either a bare term or "term:weight". A bare single
// word weighs 1; a bare multi-word phrase weighs 2 so specific phrases beat
// generic words.
func (k *Keyword) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	term := raw
	weight := 0
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		if w, err := strconv.Atoi(raw[idx+1:]); err == nil {
			term = raw[:idx]
			weight = w
		}
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return fmt.Errorf("empty keyword")
	}
	if weight <= 0 {
		weight = 1
		if strings.Contains(term, " ") {
			weight = 2
		}
	}

	k.Term = term
	k.Weight = weight
	return nil
}

// Connection holds per-source connection settings. The password never comes
// from YAML; it is read from the environment variable named by PasswordEnv,
// defaulting to CROSSQUERY_<NAME>_PASSWORD.
type Connection struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	PasswordEnv string `yaml:"password_env"`
	Password    string `yaml:"-"`
}

// Metrics holds the per-source queries behind the aggregate_stats metrics.
// Each query must yield the columns the aggregator expects: a numeric
// "count" (and optional "total" for payments).
type Metrics struct {
	Customers    string            `yaml:"customers"`
	Payments     string            `yaml:"payments"`
	EntityCounts map[string]string `yaml:"entity_counts"`
}

// Source is one independent relational database: identity, keyword profile,
// and query-translation tables. Immutable after load.
type Source struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Aliases     []string          `yaml:"aliases"`
	Dialect     string            `yaml:"dialect"` // "postgres" or "sqlserver"
	Connection  Connection        `yaml:"connection"`
	Keywords    []Keyword         `yaml:"keywords"`
	Queries     map[string]string `yaml:"queries"` // intent name -> SQL template
	Search      map[string]string `yaml:"search"`  // search kind -> parameterized SQL
	Metrics     Metrics           `yaml:"metrics"`
}

// Catalog is the ordered, immutable set of sources.
type Catalog struct {
	sources []*Source
	byName  map[string]*Source
}

type catalogFile struct {
	Sources []*Source `yaml:"sources"`
}

// Load reads the catalog from a YAML file and resolves per-source passwords
// from the environment.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML. Split from Load so tests can feed
// catalogs without touching the filesystem.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source catalog: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source catalog defines no sources")
	}

	c := &Catalog{byName: make(map[string]*Source, len(file.Sources))}
	for _, src := range file.Sources {
		if err := validateSource(src); err != nil {
			return nil, err
		}
		name := strings.ToLower(src.Name)
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate source %q in catalog", src.Name)
		}
		src.Name = name

		if src.Connection.PasswordEnv == "" {
			src.Connection.PasswordEnv = "CROSSQUERY_" + strings.ToUpper(name) + "_PASSWORD"
		}
		src.Connection.Password = os.Getenv(src.Connection.PasswordEnv)

		c.sources = append(c.sources, src)
		c.byName[name] = src
		for _, alias := range src.Aliases {
			c.byName[strings.ToLower(alias)] = src
		}
	}
	return c, nil
}

func validateSource(src *Source) error {
	if strings.TrimSpace(src.Name) == "" {
		return fmt.Errorf("source with empty name in catalog")
	}
	switch src.Dialect {
	case "postgres", "sqlserver":
	default:
		return fmt.Errorf("source %q: unsupported dialect %q", src.Name, src.Dialect)
	}
	if len(src.Keywords) == 0 {
		return fmt.Errorf("source %q: at least one keyword is required", src.Name)
	}
	return nil
}

// Get returns the source with the given name or alias.
func (c *Catalog) Get(name string) (*Source, error) {
	src, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownSource, name)
	}
	return src, nil
}

// Names returns source names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.sources))
	for i, src := range c.sources {
		names[i] = src.Name
	}
	return names
}

// Sources returns all sources in catalog order.
func (c *Catalog) Sources() []*Source {
	return c.sources
}

// Len returns the number of sources.
func (c *Catalog) Len() int {
	return len(c.sources)
}

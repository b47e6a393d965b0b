// Package names maps source-specific spellings of teams, stadiums, people and
// competitions to the canonical display names used in published records.
//
// Tables are built once at startup (compiled-in defaults, optionally merged
// with a YAML overrides file) and are read-only afterwards, so a Normalizer is
// safe to share between source pipelines.
package names

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Category selects one lookup table.
type Category string

const (
	Team        Category = "team"
	Stadium     Category = "stadium"
	Person      Category = "person"
	Competition Category = "competition"
)

// Normalizer resolves raw identifiers to canonical names.
type Normalizer struct {
	tables map[Category]map[string]string
}

// Overrides is the YAML shape of a names file.
type Overrides struct {
	Teams        map[string]string `yaml:"teams"`
	Stadiums     map[string]string `yaml:"stadiums"`
	Persons      map[string]string `yaml:"persons"`
	Competitions map[string]string `yaml:"competitions"`
}

// New returns a normalizer over the compiled-in tables.
func New() *Normalizer {
	return NewWithOverrides(Overrides{})
}

// NewWithOverrides copies the defaults and layers extra entries on top.
func NewWithOverrides(o Overrides) *Normalizer {
	return &Normalizer{
		tables: map[Category]map[string]string{
			Team:        merge(defaultTeams, o.Teams),
			Stadium:     merge(defaultStadiums, o.Stadiums),
			Person:      merge(defaultPersons, o.Persons),
			Competition: merge(defaultCompetitions, o.Competitions),
		},
	}
}

// Load builds a normalizer, reading overrides from path when it is set.
func Load(path string) (*Normalizer, error) {
	if path == "" {
		return New(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read names file %s", path)
	}

	var o Overrides
	if err := yaml.Unmarshal(content, &o); err != nil {
		return nil, errors.Wrapf(err, "decode names file %s", path)
	}

	return NewWithOverrides(o), nil
}

// Lookup returns the canonical name and whether the table had an entry.
func (n *Normalizer) Lookup(category Category, raw string) (string, bool) {
	if n == nil {
		return raw, false
	}
	name, ok := n.tables[category][raw]
	if !ok {
		return raw, false
	}
	return name, true
}

// Normalize returns the canonical name, or raw unchanged on a miss.
func (n *Normalizer) Normalize(category Category, raw string) string {
	name, _ := n.Lookup(category, raw)
	return name
}

func (n *Normalizer) Team(raw string) string        { return n.Normalize(Team, raw) }
func (n *Normalizer) Stadium(raw string) string     { return n.Normalize(Stadium, raw) }
func (n *Normalizer) Person(raw string) string      { return n.Normalize(Person, raw) }
func (n *Normalizer) Competition(raw string) string { return n.Normalize(Competition, raw) }

// Size reports how many entries a table holds.
func (n *Normalizer) Size(category Category) int {
	return len(n.tables[category])
}

func merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

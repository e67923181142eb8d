package filter

import (
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Entry is one named filter specification.
type Entry struct {
	Name string
	Spec Spec
}

// Set is a mapping from filter name to specification that remembers declaration order.
type Set struct {
	entries []Entry
}

// NewSet builds a set from entries in order. A repeated name replaces the earlier value in place.
func NewSet(entries ...Entry) Set {
	var s Set
	for _, e := range entries {
		s.Put(e.Name, e.Spec)
	}

	return s
}

// Entries returns the entries in declaration order.
func (s Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

// Len returns the number of entries.
func (s Set) Len() int {
	return len(s.entries)
}

// Get returns the specification stored under name.
func (s Set) Get(name string) (Spec, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			return e.Spec, true
		}
	}

	return Spec{}, false
}

// Put stores spec under name, keeping the position of an existing entry.
func (s *Set) Put(name string, spec Spec) {
	for i := range s.entries {
		if s.entries[i].Name == name {
			s.entries[i].Spec = spec

			return
		}
	}

	s.entries = append(s.entries, Entry{Name: name, Spec: spec})
}

// UnmarshalYAML decodes a mapping node, preserving key order and rejecting duplicate keys.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*s = Set{}

		return nil
	}

	if node.Kind != yaml.MappingNode {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "line %d: filters must be a mapping", node.Line)
	}

	set := Set{entries: make([]Entry, 0, len(node.Content)/2)}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if _, exists := set.Get(key.Value); exists {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "line %d: filter %q declared twice", key.Line, key.Value)
		}

		var spec Spec
		if err := spec.UnmarshalYAML(value); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidFilterValue, err, "filter %q", key.Value)
		}

		set.entries = append(set.entries, Entry{Name: key.Value, Spec: spec})
	}

	*s = set

	return nil
}

// JSONSchema describes a filter mapping.
func (Set) JSONSchema() *jsonschema.Schema {
	names := make([]any, 0)
	for _, name := range Names() {
		names = append(names, name)
	}

	return &jsonschema.Schema{
		Type:        "object",
		Title:       "Filters",
		Description: "Mapping from filter name to a number, a [low, target, high] tuple, a date, a period such as 7d, or {value, cond}. Declaration order is application order within a stage.",
		PropertyNames: &jsonschema.Schema{
			Enum: names,
		},
	}
}

// Package registry loads the declarative tests configuration and exposes
// it as an ordered mapping from binary name to per-binary run policy.
//
// The configuration is a YAML document with a top-level "tests" sequence.
// Each element is either a bare binary name or a single-key mapping from
// binary name to settings. Settings may carry "to_fix", an ordered list of
// test identifiers to exclude, and "platform", which is parsed but not
// consulted by execution (a long-standing limitation of this tool).
package registry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunPolicy holds the per-binary settings derived from the configuration.
// The zero value runs the binary with no exclusions.
type RunPolicy struct {
	ExcludedTests []string // Test identifiers to skip, in config order
	Platforms     []string // Target platforms; parsed but inert
}

// Registry is an insertion-ordered mapping from binary name to RunPolicy.
// It is built once from a configuration file and never mutated afterwards.
// A duplicate name keeps its first-seen position while its later settings
// win.
type Registry struct {
	path     string
	names    []string
	policies map[string]RunPolicy
	dupes    map[string]bool
}

// Load reads and parses the configuration file at path into a Registry.
// It returns a ConfigParseError when the document cannot be read or is not
// a mapping with a tests sequence, and a ConfigFormatError when an
// individual tests entry has an unrecognized shape.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}

	var doc struct {
		Tests yaml.Node `yaml:"tests"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	if doc.Tests.IsZero() {
		return nil, &ConfigParseError{Path: path, Err: errors.New("missing top-level tests key")}
	}
	if doc.Tests.Kind != yaml.SequenceNode {
		return nil, &ConfigParseError{Path: path, Err: errors.New("tests must be a sequence")}
	}

	reg := &Registry{
		path:     path,
		policies: make(map[string]RunPolicy),
		dupes:    make(map[string]bool),
	}
	for i, entry := range doc.Tests.Content {
		name, policy, err := parseEntry(path, i, entry)
		if err != nil {
			return nil, err
		}
		reg.add(name, policy)
	}
	return reg, nil
}

// Path returns the configuration file path the registry was loaded from.
func (r *Registry) Path() string {
	return r.path
}

// Names returns all binary names in insertion order of first appearance.
// Duplicate entries in the document do not produce duplicate names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Get returns the RunPolicy for a binary name and whether the name exists.
func (r *Registry) Get(name string) (RunPolicy, bool) {
	policy, ok := r.policies[name]
	return policy, ok
}

// Len returns the number of distinct binary names in the registry.
func (r *Registry) Len() int {
	return len(r.names)
}

// Duplicates returns the names that appear more than once in the document,
// in first-appearance order.
func (r *Registry) Duplicates() []string {
	var dupes []string
	for _, name := range r.names {
		if r.dupes[name] {
			dupes = append(dupes, name)
		}
	}
	return dupes
}

func (r *Registry) add(name string, policy RunPolicy) {
	if _, seen := r.policies[name]; !seen {
		r.names = append(r.names, name)
	} else {
		r.dupes[name] = true
	}
	r.policies[name] = policy
}

// parseEntry resolves one tests element. A scalar string is shorthand for
// a mapping from that name to null settings.
func parseEntry(path string, idx int, node *yaml.Node) (string, RunPolicy, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!str" {
			return "", RunPolicy{}, &ConfigFormatError{
				Path:   path,
				Entry:  idx,
				Reason: fmt.Sprintf("unexpected shorthand type %s", node.Tag),
			}
		}
		return node.Value, RunPolicy{}, nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return "", RunPolicy{}, &ConfigFormatError{
				Path:   path,
				Entry:  idx,
				Reason: "entry must map exactly one binary name to its settings",
			}
		}
		key, val := node.Content[0], node.Content[1]
		if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			return "", RunPolicy{}, &ConfigFormatError{
				Path:   path,
				Entry:  idx,
				Reason: "binary name must be a string",
			}
		}
		policy, err := parseSettings(path, idx, key.Value, val)
		if err != nil {
			return "", RunPolicy{}, err
		}
		return key.Value, policy, nil

	default:
		return "", RunPolicy{}, &ConfigFormatError{
			Path:   path,
			Entry:  idx,
			Reason: fmt.Sprintf("unexpected shorthand type %s", node.Tag),
		}
	}
}

func parseSettings(path string, idx int, name string, node *yaml.Node) (RunPolicy, error) {
	if node.Tag == "!!null" {
		return RunPolicy{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return RunPolicy{}, &ConfigFormatError{
			Path:   path,
			Entry:  idx,
			Reason: fmt.Sprintf("settings for %q must be a mapping or null", name),
		}
	}

	var settings struct {
		ToFix    []string  `yaml:"to_fix"`
		Platform yaml.Node `yaml:"platform"`
	}
	if err := node.Decode(&settings); err != nil {
		return RunPolicy{}, &ConfigFormatError{
			Path:   path,
			Entry:  idx,
			Reason: fmt.Sprintf("invalid settings for %q: %v", name, err),
		}
	}

	policy := RunPolicy{ExcludedTests: settings.ToFix}

	// The platform setting accepts a single name or a sequence of names.
	switch {
	case settings.Platform.IsZero(), settings.Platform.Tag == "!!null":
	case settings.Platform.Kind == yaml.ScalarNode:
		policy.Platforms = []string{settings.Platform.Value}
	case settings.Platform.Kind == yaml.SequenceNode:
		if err := settings.Platform.Decode(&policy.Platforms); err != nil {
			return RunPolicy{}, &ConfigFormatError{
				Path:   path,
				Entry:  idx,
				Reason: fmt.Sprintf("invalid platform setting for %q: %v", name, err),
			}
		}
	default:
		return RunPolicy{}, &ConfigFormatError{
			Path:   path,
			Entry:  idx,
			Reason: fmt.Sprintf("platform setting for %q must be a string or a sequence", name),
		}
	}

	return policy, nil
}

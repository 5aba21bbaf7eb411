// Package pattern implements the condoor pattern registry: a two-level
// platform -> name -> regular-expression map used by every FSM in the
// system to recognize prompts, error strings, and other CLI dialog
// markers. Ported from condoor/patterns.py's PatternManager.
package pattern

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"

	cerrors "github.com/decolnz/condoor/errors"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultDocument []byte

const genericPlatform = "generic"

// entry is a single platform/name pattern record: its source text, the
// human-readable description logged alongside it, and the platforms the
// pattern is composed from, if any (a list value in the YAML document).
type entry struct {
	text        string
	description string
	refersTo    []string // platform names, for list-composed entries
}

// Registry is a compiled, queryable pattern document. Registries are safe
// for concurrent read access once built.
type Registry struct {
	raw      map[string]map[string]interface{}
	entries  map[string]map[string]*entry
	compiled map[string]map[string]*regexp.Regexp
}

// NewRegistry builds a Registry from the embedded default pattern document,
// optionally merged with an overlay document. Overlay entries are additive:
// a platform/name pair present in overlay replaces the default, anything
// else from the default is preserved. A nil overlay uses defaults only.
func NewRegistry(overlay []byte) (*Registry, error) {
	raw := map[string]map[string]interface{}{}
	if err := yaml.Unmarshal(defaultDocument, &raw); err != nil {
		return nil, fmt.Errorf("pattern: parse embedded document: %w", err)
	}

	if len(overlay) > 0 {
		over := map[string]map[string]interface{}{}
		if err := yaml.Unmarshal(overlay, &over); err != nil {
			return nil, fmt.Errorf("pattern: parse overlay document: %w", err)
		}
		for platform, names := range over {
			if raw[platform] == nil {
				raw[platform] = map[string]interface{}{}
			}
			for name, value := range names {
				raw[platform][name] = value
			}
		}
	}

	r := &Registry{
		raw:      raw,
		entries:  map[string]map[string]*entry{},
		compiled: map[string]map[string]*regexp.Regexp{},
	}
	if err := r.prepare(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) prepare() error {
	for platform, names := range r.raw {
		r.entries[platform] = map[string]*entry{}
		for name, value := range names {
			e, err := toEntry(name, value)
			if err != nil {
				return fmt.Errorf("pattern: %s.%s: %w", platform, name, err)
			}
			r.entries[platform][name] = e
		}
	}
	// Resolve list-composed entries (referencing other platforms' value
	// for the same key) now that every platform's raw entries exist.
	for platform, names := range r.entries {
		for name, e := range names {
			if e.refersTo == nil {
				continue
			}
			text, err := r.concatenate(platform, name, e.refersTo)
			if err != nil {
				return err
			}
			e.text = text
			e.description = name
		}
	}
	return nil
}

func toEntry(name string, value interface{}) (*entry, error) {
	switch v := value.(type) {
	case string:
		return &entry{text: v, description: name}, nil
	case map[string]interface{}:
		text, _ := v["pattern"].(string)
		descr, _ := v["description"].(string)
		if descr == "" {
			descr = name
		}
		if text == "" {
			return nil, fmt.Errorf("missing 'pattern' key")
		}
		return &entry{text: text, description: descr}, nil
	case []interface{}:
		platforms := make([]string, 0, len(v))
		for _, p := range v {
			s, ok := p.(string)
			if !ok {
				return nil, fmt.Errorf("list entries must be platform name strings")
			}
			platforms = append(platforms, s)
		}
		return &entry{refersTo: platforms}, nil
	default:
		return nil, fmt.Errorf("unsupported pattern value type %T", value)
	}
}

// concatenate unions the named key's pattern across the referenced
// platforms with "|", the same rule condoor/patterns.py's
// _concatenate_patterns applies.
func (r *Registry) concatenate(platform, name string, refersTo []string) (string, error) {
	seen := map[string]struct{}{}
	var parts []string
	for _, p := range refersTo {
		names, ok := r.entries[p]
		if !ok {
			continue
		}
		e, ok := names[name]
		if !ok || e.refersTo != nil {
			continue
		}
		if _, dup := seen[e.text]; dup {
			continue
		}
		seen[e.text] = struct{}{}
		parts = append(parts, e.text)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no source platform provided a value for %q", name)
	}
	joined := parts[0]
	for _, p := range parts[1:] {
		joined += "|" + p
	}
	return joined, nil
}

func (r *Registry) lookup(platform, name string) (*entry, bool) {
	if names, ok := r.entries[platform]; ok {
		if e, ok := names[name]; ok {
			return e, true
		}
	}
	if platform == genericPlatform {
		return nil, false
	}
	if names, ok := r.entries[genericPlatform]; ok {
		if e, ok := names[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// Text returns the uncompiled pattern text for platform/name, falling
// back to "generic" when platform has no such entry.
func (r *Registry) Text(platform, name string) (string, error) {
	e, ok := r.lookup(platform, name)
	if !ok {
		return "", cerrors.NewConnectionError(fmt.Sprintf("pattern database missing %s.%s", platform, name), "")
	}
	return e.text, nil
}

// Pattern returns the compiled regexp for platform/name, falling back to
// "generic". Compiled patterns are cached.
func (r *Registry) Pattern(platform, name string) (*regexp.Regexp, error) {
	if names, ok := r.compiled[platform]; ok {
		if re, ok := names[name]; ok {
			return re, nil
		}
	}

	text, err := r.Text(platform, name)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("pattern: compile %s.%s: %w", platform, name, err)
	}

	if r.compiled[platform] == nil {
		r.compiled[platform] = map[string]*regexp.Regexp{}
	}
	r.compiled[platform][name] = re
	return re, nil
}

// Description returns the human-readable description registered for
// platform/name, or "" if unknown.
func (r *Registry) Description(platform, name string) string {
	if e, ok := r.lookup(platform, name); ok {
		return e.description
	}
	return ""
}

// Platforms returns every platform name the registry has entries for,
// sorted, for diagnostic listing (condoor patterns -list).
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.entries))
	for p := range r.entries {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// Names returns every pattern name registered directly under platform
// (not counting the generic fallback), sorted.
func (r *Registry) Names(platform string) []string {
	names := make([]string, 0, len(r.entries[platform]))
	for n := range r.entries[platform] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Platform classifies a prompt sample against generic.prompt_detection,
// in order, returning the first platform whose "prompt" pattern matches.
// Returns ("", false) if none match.
func (r *Registry) Platform(sample string) (string, bool) {
	order, ok := r.raw[genericPlatform]["prompt_detection"].([]interface{})
	if !ok {
		return "", false
	}
	for _, p := range order {
		platform, ok := p.(string)
		if !ok {
			continue
		}
		re, err := r.Pattern(platform, "prompt")
		if err != nil {
			continue
		}
		if re.MatchString(sample) {
			return platform, true
		}
	}
	return "", false
}

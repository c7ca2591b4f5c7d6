// Package descriptor is the descriptor dependency and caching engine.
//
// A Descriptor declares named dependencies on other descriptors (Nested refs)
// or on low-level intermediate computations addressed by a composite key of
// option flags (Composite refs). The Resolver evaluates that graph depth-first
// for one molecule, memoising every result in a per-molecule Cache so each
// descriptor identity is calculated at most once. Families of parameterised
// descriptors are enumerated through presets registered in a Registry.
package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Key is the value identity of a descriptor instance: its kind plus the
// canonical encoding of its ordered parameter tuple. Keys are comparable and
// are used directly as map keys.
type Key struct {
	Kind   string
	Params string
}

// NewKey builds a Key from a kind and ordered parameters. Parameters are
// rendered canonically (bools as true/false, integers in base 10) and joined
// with commas.
func NewKey(kind string, params ...interface{}) Key {
	if len(params) == 0 {
		return Key{Kind: kind}
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatParam(p)
	}
	return Key{Kind: kind, Params: strings.Join(parts, ",")}
}

func formatParam(p interface{}) string {
	switch v := p.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// String renders the key as Kind(Params).
func (k Key) String() string {
	return k.Kind + "(" + k.Params + ")"
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.Kind == "" && k.Params == ""
}

// ParamList splits Params back into the ordered parameter strings.
func (k Key) ParamList() []string {
	if k.Params == "" {
		return nil
	}
	return strings.Split(k.Params, ",")
}

// ParseKey parses the Kind(Params) rendering produced by Key.String.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Key{}, errors.Newf(errors.ErrCodeUnknownDescriptor, "malformed descriptor key %q", s)
	}
	kind := s[:open]
	raw := s[open+1 : len(s)-1]
	if strings.ContainsAny(raw, "()") {
		return Key{}, errors.Newf(errors.ErrCodeUnknownDescriptor, "malformed descriptor key %q", s)
	}
	var parts []string
	if strings.TrimSpace(raw) != "" {
		for _, p := range strings.Split(raw, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return Key{Kind: kind, Params: strings.Join(parts, ",")}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Parameter parsing helpers for Factory implementations
// ─────────────────────────────────────────────────────────────────────────────

// ExpectParams checks the parameter count for kind.
func ExpectParams(kind string, params []string, n int) error {
	if len(params) != n {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"%s expects %d parameter(s), got %d", kind, n, len(params))
	}
	return nil
}

// ParseBoolParam parses a boolean parameter.
func ParseBoolParam(kind, name, raw string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, errors.Newf(errors.ErrCodeInvalidParameter,
			"%s: parameter %s must be a boolean, got %q", kind, name, raw)
	}
	return v, nil
}

// ParseIntParam parses an integer parameter.
func ParseIntParam(kind, name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"%s: parameter %s must be an integer, got %q", kind, name, raw)
	}
	return v, nil
}

//Personal.AI order the ending

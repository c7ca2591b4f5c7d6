package descriptor

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Args carries the resolved dependency values handed to Calculate, keyed by
// the local names declared in Dependencies.
type Args struct {
	owner  Key
	values map[string]interface{}
}

// NewArgs wraps resolved values for the descriptor identified by owner.
func NewArgs(owner Key, values map[string]interface{}) Args {
	return Args{owner: owner, values: values}
}

// Len returns the number of bound arguments.
func (a Args) Len() int { return len(a.values) }

// Names returns the bound local names in sorted order.
func (a Args) Names() []string {
	out := make([]string, 0, len(a.values))
	for name := range a.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Get returns the raw value bound to name.
func (a Args) Get(name string) (interface{}, error) {
	v, ok := a.values[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeMissingDependencyBinding,
			"%s references dependency %q which is not declared", a.owner, name)
	}
	return v, nil
}

// Float returns a numeric argument as float64. Integer results widen.
func (a Args) Float(name string) (float64, error) {
	v, err := a.Get(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, a.mismatch(name, "float64", v)
}

// Int returns an integer argument.
func (a Args) Int(name string) (int64, error) {
	v, err := a.Get(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, a.mismatch(name, "int64", v)
}

// ArgAs returns the argument bound to name asserted to T.
func ArgAs[T any](a Args, name string) (T, error) {
	var zero T
	v, err := a.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, a.mismatch(name, typeName[T](), v)
	}
	return t, nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func typeOf(v interface{}) string {
	return fmt.Sprintf("%T", v)
}

func (a Args) mismatch(name, want string, got interface{}) error {
	return errors.Newf(errors.ErrCodeMissingDependencyBinding,
		"%s: dependency %q is %s, want %s", a.owner, name, typeOf(got), want)
}

//Personal.AI order the ending

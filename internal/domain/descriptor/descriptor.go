package descriptor

import (
	"context"
	"fmt"
	"strings"

	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
)

// ResultType describes the numeric domain of a descriptor's result.
type ResultType int

const (
	// ResultIntermediate marks an internal structure that is never reported.
	ResultIntermediate ResultType = iota
	ResultInt
	ResultFloat
)

func (t ResultType) String() string {
	switch t {
	case ResultIntermediate:
		return "intermediate"
	case ResultInt:
		return "int"
	case ResultFloat:
		return "float"
	default:
		return fmt.Sprintf("ResultType(%d)", int(t))
	}
}

// ParseResultType parses the String form of a ResultType.
func ParseResultType(s string) (ResultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return ResultIntermediate, nil
	case "int":
		return ResultInt, nil
	case "float":
		return ResultFloat, nil
	}
	return ResultIntermediate, fmt.Errorf("descriptor: unknown result type %q", s)
}

// Descriptor is one parameterised computation over a molecule.
//
// Instances are immutable after construction and constructors validate their
// parameters. Two instances with the same Key are interchangeable.
type Descriptor interface {
	// Key is the value identity used for equality and caching.
	Key() Key

	// Name is the canonical user-facing name, e.g. "C1SP3" or "WPath".
	// Intermediates render their key.
	Name() string

	ResultType() ResultType

	// Dependencies maps local argument names to the values this descriptor
	// consumes. It is derived fresh on every call and may be empty.
	Dependencies() map[string]Ref

	// Calculate computes the result from the molecule and the resolved
	// dependencies. Undefined results are NaN, not errors. Implementations
	// must not mutate mol or any value in args.
	Calculate(ctx context.Context, mol molecule.Molecule, args Args) (interface{}, error)
}

// Equal reports whether a and b denote the same descriptor identity.
func Equal(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// Names returns the canonical names of ds in order.
func Names(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

//Personal.AI order the ending

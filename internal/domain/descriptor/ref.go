package descriptor

// Ref is a dependency reference: either a nested descriptor instance or a
// composite key naming an intermediate that the Registry can build.
type Ref struct {
	nested Descriptor
	key    Key
}

// Nested references a concrete descriptor instance.
func Nested(d Descriptor) Ref {
	return Ref{nested: d, key: d.Key()}
}

// Composite references the intermediate of the given kind parameterised by
// option flags, e.g. Composite("DistanceMatrix", explicitH, useBO, useWeights).
func Composite(kind string, flags ...bool) Ref {
	params := make([]interface{}, len(flags))
	for i, f := range flags {
		params[i] = f
	}
	return Ref{key: NewKey(kind, params...)}
}

// Key returns the identity the reference resolves to.
func (r Ref) Key() Key { return r.key }

// IsComposite reports whether the reference must be built by a Registry.
func (r Ref) IsComposite() bool { return r.nested == nil }

// Descriptor returns the nested instance, or nil for composite references.
func (r Ref) Descriptor() Descriptor { return r.nested }

func (r Ref) String() string {
	if r.IsComposite() {
		return "composite:" + r.key.String()
	}
	return "nested:" + r.key.String()
}

//Personal.AI order the ending

package builtin

import (
	"context"
	"math"

	"github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
)

const (
	KindRadius                = "Radius"
	KindDiameter              = "Diameter"
	KindTopologicalShapeIndex = "TopologicalShapeIndex"
	KindPetitjeanIndex        = "PetitjeanIndex"
)

// topological is the shared shape of the radius/diameter family. Each member
// works on the heavy-atom graph.
type topological struct {
	kind  string
	name  string
	rtype descriptor.ResultType
	deps  []string
	calc  func(r, d float64) interface{}
}

func (t *topological) Key() descriptor.Key               { return descriptor.NewKey(t.kind) }
func (t *topological) Name() string                      { return t.name }
func (t *topological) ResultType() descriptor.ResultType { return t.rtype }

func (t *topological) Dependencies() map[string]descriptor.Ref {
	out := make(map[string]descriptor.Ref, len(t.deps))
	for _, name := range t.deps {
		switch name {
		case "R":
			out[name] = heavyGraph.ref(KindGraphRadius)
		case "D":
			out[name] = heavyGraph.ref(KindGraphDiameter)
		}
	}
	return out
}

func (t *topological) Calculate(_ context.Context, _ molecule.Molecule, args descriptor.Args) (interface{}, error) {
	r, d := math.NaN(), math.NaN()
	var err error
	for _, name := range t.deps {
		switch name {
		case "R":
			r, err = args.Float("R")
		case "D":
			d, err = args.Float("D")
		}
		if err != nil {
			return nil, err
		}
	}
	return t.calc(r, d), nil
}

// integral reports v as an int64 unless it is NaN.
func integral(v float64) interface{} {
	if math.IsNaN(v) {
		return v
	}
	return int64(v)
}

// NewRadius returns the graph radius: the minimum atom eccentricity.
func NewRadius() descriptor.Descriptor {
	return &topological{
		kind:  KindRadius,
		name:  "Radius",
		rtype: descriptor.ResultInt,
		deps:  []string{"R"},
		calc:  func(r, _ float64) interface{} { return integral(r) },
	}
}

// NewDiameter returns the graph diameter: the maximum atom eccentricity.
func NewDiameter() descriptor.Descriptor {
	return &topological{
		kind:  KindDiameter,
		name:  "Diameter",
		rtype: descriptor.ResultInt,
		deps:  []string{"D"},
		calc:  func(_, d float64) interface{} { return integral(d) },
	}
}

// NewTopologicalShapeIndex returns (D - R) / R.
func NewTopologicalShapeIndex() descriptor.Descriptor {
	return &topological{
		kind:  KindTopologicalShapeIndex,
		name:  "TopoShapeIndex",
		rtype: descriptor.ResultFloat,
		deps:  []string{"R", "D"},
		calc:  func(r, d float64) interface{} { return shapeRatio(d-r, r) },
	}
}

// NewPetitjeanIndex returns (D - R) / D.
func NewPetitjeanIndex() descriptor.Descriptor {
	return &topological{
		kind:  KindPetitjeanIndex,
		name:  "PetitjeanIndex",
		rtype: descriptor.ResultFloat,
		deps:  []string{"R", "D"},
		calc:  func(r, d float64) interface{} { return shapeRatio(d-r, d) },
	}
}

func shapeRatio(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}

func singleton(kind string, build func() descriptor.Descriptor) descriptor.Factory {
	return func(params []string) (descriptor.Descriptor, error) {
		if err := descriptor.ExpectParams(kind, params, 0); err != nil {
			return nil, err
		}
		return build(), nil
	}
}

//Personal.AI order the ending

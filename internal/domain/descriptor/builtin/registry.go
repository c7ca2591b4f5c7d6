// Package builtin provides the standard descriptor families: carbon types,
// hybridization ratio, topological radius/diameter indices and Wiener
// indices, together with the shared intermediates they depend on.
package builtin

import (
	"sync"

	"github.com/turtacn/MolDescriptor/internal/domain/descriptor"
)

// All returns the standard families in column order.
func All() []descriptor.Family {
	return []descriptor.Family{
		{
			Name:        KindCarbonTypes,
			Kind:        KindCarbonTypes,
			Description: "carbons by hybridization and number of bonded carbons",
			Preset:      carbonTypesPreset,
		},
		{
			Name:        KindHybridizationRatio,
			Kind:        KindHybridizationRatio,
			Description: "fraction of SP3 carbons among SP2 and SP3 carbons",
			Preset:      func() []descriptor.Descriptor { return []descriptor.Descriptor{NewHybridizationRatio()} },
		},
		{
			Name:        KindRadius,
			Kind:        KindRadius,
			Description: "topological radius",
			Preset:      func() []descriptor.Descriptor { return []descriptor.Descriptor{NewRadius()} },
		},
		{
			Name:        KindDiameter,
			Kind:        KindDiameter,
			Description: "topological diameter",
			Preset:      func() []descriptor.Descriptor { return []descriptor.Descriptor{NewDiameter()} },
		},
		{
			Name:        KindTopologicalShapeIndex,
			Kind:        KindTopologicalShapeIndex,
			Description: "topological shape index (D-R)/R",
			Preset:      func() []descriptor.Descriptor { return []descriptor.Descriptor{NewTopologicalShapeIndex()} },
		},
		{
			Name:        KindPetitjeanIndex,
			Kind:        KindPetitjeanIndex,
			Description: "Petitjean index (D-R)/D",
			Preset:      func() []descriptor.Descriptor { return []descriptor.Descriptor{NewPetitjeanIndex()} },
		},
		{
			Name:        KindWienerIndex,
			Kind:        KindWienerIndex,
			Description: "Wiener path and polarity numbers",
			Preset: func() []descriptor.Descriptor {
				return []descriptor.Descriptor{NewWienerIndex(false), NewWienerIndex(true)}
			},
		},
	}
}

func kinds() map[string]descriptor.Factory {
	return map[string]descriptor.Factory{
		KindCarbonTypesCache:      singleton(KindCarbonTypesCache, NewCarbonTypesCache),
		KindCarbonTypes:           carbonTypesFactory,
		KindHybridizationRatio:    singleton(KindHybridizationRatio, func() descriptor.Descriptor { return NewHybridizationRatio() }),
		KindDistanceMatrix:        graphFactory(KindDistanceMatrix, NewDistanceMatrix),
		KindEccentricity:          graphFactory(KindEccentricity, NewEccentricity),
		KindGraphRadius:           graphFactory(KindGraphRadius, NewGraphRadius),
		KindGraphDiameter:         graphFactory(KindGraphDiameter, NewGraphDiameter),
		KindRadius:                singleton(KindRadius, NewRadius),
		KindDiameter:              singleton(KindDiameter, NewDiameter),
		KindTopologicalShapeIndex: singleton(KindTopologicalShapeIndex, NewTopologicalShapeIndex),
		KindPetitjeanIndex:        singleton(KindPetitjeanIndex, NewPetitjeanIndex),
		KindWienerIndex:           wienerFactory,
	}
}

// NewRegistry returns a registry holding every builtin kind and family.
func NewRegistry() *descriptor.Registry {
	reg := descriptor.NewRegistry()
	for kind, f := range kinds() {
		if err := reg.RegisterKind(kind, f); err != nil {
			panic(err)
		}
	}
	for _, fam := range All() {
		if err := reg.RegisterFamily(fam); err != nil {
			panic(err)
		}
	}
	return reg
}

var (
	defaultOnce     sync.Once
	defaultRegistry *descriptor.Registry
)

// Default returns the shared builtin registry. Callers must treat it as
// read-only.
func Default() *descriptor.Registry {
	defaultOnce.Do(func() { defaultRegistry = NewRegistry() })
	return defaultRegistry
}

//Personal.AI order the ending

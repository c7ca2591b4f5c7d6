// Package molecule defines the molecule input DTOs accepted by every
// MolDescriptor surface. No domain logic lives here, only plain data types
// that are safe to import from any layer.
package molecule

import (
	"fmt"
	"strings"
)

// MoleculeFormat identifies the line notation of a molecule input.
type MoleculeFormat string

const (
	// FormatSMILES is the Daylight SMILES line notation.
	FormatSMILES MoleculeFormat = "smiles"
)

// IsValid reports whether the format is supported.
func (f MoleculeFormat) IsValid() bool {
	return f == FormatSMILES
}

// MaxSMILESLength bounds a single input string.
const MaxSMILESLength = 10000

// MoleculeInput is one molecule submitted for calculation.
type MoleculeInput struct {
	// ID is the caller's identifier. When empty the SMILES string is used.
	ID string `json:"id,omitempty"`

	Format MoleculeFormat `json:"format,omitempty"`
	SMILES string         `json:"smiles"`
}

// Identifier returns ID, or the trimmed SMILES when ID is empty.
func (m MoleculeInput) Identifier() string {
	if m.ID != "" {
		return m.ID
	}
	return strings.TrimSpace(m.SMILES)
}

// Validate checks the input shape. It does not parse the SMILES string.
func (m MoleculeInput) Validate() error {
	if m.Format != "" && !m.Format.IsValid() {
		return fmt.Errorf("unsupported molecule format %q", m.Format)
	}
	s := strings.TrimSpace(m.SMILES)
	if s == "" {
		return fmt.Errorf("smiles must not be empty")
	}
	if len(s) > MaxSMILESLength {
		return fmt.Errorf("smiles exceeds %d characters", MaxSMILESLength)
	}
	return nil
}

// FromSMILES wraps bare SMILES strings as inputs, keeping order.
func FromSMILES(smiles ...string) []MoleculeInput {
	out := make([]MoleculeInput, len(smiles))
	for i, s := range smiles {
		out[i] = MoleculeInput{Format: FormatSMILES, SMILES: s}
	}
	return out
}

//Personal.AI order the ending

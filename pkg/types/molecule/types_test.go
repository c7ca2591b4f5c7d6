package molecule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoleculeFormat_IsValid(t *testing.T) {
	assert.True(t, FormatSMILES.IsValid())
	assert.False(t, MoleculeFormat("inchi").IsValid())
}

func TestMoleculeInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   MoleculeInput
		wantErr bool
	}{
		{"smiles", MoleculeInput{SMILES: "c1ccccc1"}, false},
		{"explicit format", MoleculeInput{Format: FormatSMILES, SMILES: "CCO"}, false},
		{"blank", MoleculeInput{SMILES: "   "}, true},
		{"bad format", MoleculeInput{Format: "molfile", SMILES: "CCO"}, true},
		{"too long", MoleculeInput{SMILES: strings.Repeat("C", MaxSMILESLength+1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMoleculeInput_Identifier(t *testing.T) {
	assert.Equal(t, "aspirin", MoleculeInput{ID: "aspirin", SMILES: "CC(=O)O"}.Identifier())
	assert.Equal(t, "CCO", MoleculeInput{SMILES: " CCO "}.Identifier())
}

func TestFromSMILES(t *testing.T) {
	in := FromSMILES("C", "CC")
	assert.Len(t, in, 2)
	assert.Equal(t, "CC", in[1].SMILES)
	assert.Equal(t, FormatSMILES, in[0].Format)
}

//Personal.AI order the ending

package toolkit

import (
	"context"
	"strings"

	"github.com/turtacn/MolDescriptor/internal/domain/molecule"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Parser turns a textual molecule representation into a molecule graph.
type Parser interface {
	Parse(ctx context.Context, id, smiles string) (molecule.Molecule, error)
}

// Toolkit is the SMILES-backed Parser used by the calculation service.
type Toolkit struct {
	logger logging.Logger
}

var _ Parser = (*Toolkit)(nil)

// New creates a Toolkit. A nil logger discards output.
func New(logger logging.Logger) *Toolkit {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Toolkit{logger: logger.Named("toolkit")}
}

// Parse parses smiles into a molecule with the given identity. An empty id
// falls back to the trimmed SMILES text.
func (t *Toolkit) Parse(ctx context.Context, id, smiles string) (molecule.Molecule, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCalculationTimeout, "parse cancelled")
	}
	if strings.TrimSpace(id) == "" {
		id = strings.TrimSpace(smiles)
	}
	g, err := ParseSMILESWithID(id, smiles)
	if err != nil {
		t.logger.Debug("SMILES rejected",
			logging.Molecule(id),
			logging.String("smiles", smiles),
			logging.Err(err))
		return nil, err
	}
	t.logger.Debug("SMILES parsed",
		logging.Molecule(id),
		logging.Int("atoms", g.NumAtoms()),
		logging.Int("bonds", g.NumBonds()))
	return g, nil
}

//Personal.AI order the ending

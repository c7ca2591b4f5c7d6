package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/common"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// ─────────────────────────────────────────────────────────────────────────────
// ResultRepository
// ─────────────────────────────────────────────────────────────────────────────

// ResultRepository persists one row per molecule in molecule_results and one
// row per computed descriptor in descriptor_values. Saving a molecule again
// replaces its previous values.
type ResultRepository struct {
	conn   *postgres.Connection
	logger logging.Logger
}

func NewResultRepository(conn *postgres.Connection, log logging.Logger) *ResultRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ResultRepository{conn: conn, logger: log}
}

const (
	upsertMoleculeSQL = `INSERT INTO molecule_results (molecule_id, smiles, job_id, error, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (molecule_id) DO UPDATE
		SET smiles = EXCLUDED.smiles, job_id = EXCLUDED.job_id, error = EXCLUDED.error, computed_at = EXCLUDED.computed_at`
	deleteValuesSQL = `DELETE FROM descriptor_values WHERE molecule_id = $1`
	insertValueSQL  = `INSERT INTO descriptor_values (molecule_id, position, descriptor, value_type, int_value, float_value, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// SaveRows stores rows in a single transaction.
func (r *ResultRepository) SaveRows(ctx context.Context, jobID string, rows []descriptor.Row) error {
	if len(rows) == 0 {
		return nil
	}
	r.logger.Debug("saving descriptor rows", logging.String("job_id", jobID), logging.Int("rows", len(rows)))

	now := time.Now().UTC()
	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, row := range rows {
			if err := saveRow(ctx, tx, jobID, row, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save descriptor rows", logging.String("job_id", jobID), logging.Err(err))
		if appErrors.GetCode(err) == appErrors.ErrCodeDatabaseError {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to save descriptor rows")
	}
	return nil
}

func saveRow(ctx context.Context, q queryExecutor, jobID string, row descriptor.Row, at time.Time) error {
	if _, err := q.ExecContext(ctx, upsertMoleculeSQL, row.MoleculeID, row.SMILES, jobID, row.Error, at); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, deleteValuesSQL, row.MoleculeID); err != nil {
		return err
	}
	for i, cell := range row.Cells {
		typ, iv, fv := valueColumns(cell.Value)
		if _, err := q.ExecContext(ctx, insertValueSQL, row.MoleculeID, i, cell.Name, typ, iv, fv, cell.Error); err != nil {
			return err
		}
	}
	return nil
}

// FindByMolecule loads the stored row of one molecule.
func (r *ResultRepository) FindByMolecule(ctx context.Context, moleculeID string) (*descriptor.Row, error) {
	db := r.conn.DB()
	row := descriptor.Row{MoleculeID: moleculeID}
	err := db.QueryRowContext(ctx,
		`SELECT smiles, error FROM molecule_results WHERE molecule_id = $1`, moleculeID,
	).Scan(&row.SMILES, &row.Error)
	if err == sql.ErrNoRows {
		return nil, appErrors.New(appErrors.ErrCodeResultNotFound, "descriptor result not found").WithDetail(moleculeID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load molecule result")
	}

	cells, err := loadCells(ctx, db, moleculeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load descriptor values")
	}
	row.Cells = cells
	return &row, nil
}

func loadCells(ctx context.Context, q queryExecutor, moleculeID string) ([]descriptor.Cell, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT descriptor, value_type, int_value, float_value, error
		FROM descriptor_values WHERE molecule_id = $1 ORDER BY position`, moleculeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []descriptor.Cell
	for rows.Next() {
		cell, err := scanCell(rows)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

func scanCell(s scanner) (descriptor.Cell, error) {
	var (
		cell descriptor.Cell
		typ  string
		iv   sql.NullInt64
		fv   sql.NullFloat64
	)
	if err := s.Scan(&cell.Name, &typ, &iv, &fv, &cell.Error); err != nil {
		return cell, err
	}
	cell.Value = valueFromColumns(typ, iv, fv)
	return cell, nil
}

// List returns stored molecules, newest first, without their values.
func (r *ResultRepository) List(ctx context.Context, p common.Pagination) ([]descriptor.Row, int64, error) {
	p = p.Normalize()
	db := r.conn.DB()

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM molecule_results`).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to count molecule results")
	}

	rows, err := db.QueryContext(ctx,
		`SELECT molecule_id, smiles, error FROM molecule_results
		ORDER BY computed_at DESC, molecule_id LIMIT $1 OFFSET $2`, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list molecule results")
	}
	defer rows.Close()

	out := make([]descriptor.Row, 0, p.PageSize)
	for rows.Next() {
		var row descriptor.Row
		if err := rows.Scan(&row.MoleculeID, &row.SMILES, &row.Error); err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan molecule result")
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate molecule results")
	}
	return out, total, nil
}

// Delete removes a molecule and, by cascade, its values.
func (r *ResultRepository) Delete(ctx context.Context, moleculeID string) error {
	res, err := r.conn.DB().ExecContext(ctx, `DELETE FROM molecule_results WHERE molecule_id = $1`, moleculeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to delete molecule result")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.New(appErrors.ErrCodeResultNotFound, "descriptor result not found").WithDetail(moleculeID)
	}
	return nil
}

//Personal.AI order the ending

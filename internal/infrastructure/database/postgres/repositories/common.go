// Package repositories holds the PostgreSQL persistence for descriptor
// results and calculation jobs.
package repositories

import (
	"context"
	"database/sql"
	"math"

	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// valueColumns splits v into the (value_type, int_value, float_value)
// columns. NaN and infinities are stored as NULL.
func valueColumns(v descriptor.Value) (string, sql.NullInt64, sql.NullFloat64) {
	if v.Type == descriptor.ValueInt {
		return string(descriptor.ValueInt), sql.NullInt64{Int64: v.Int, Valid: true}, sql.NullFloat64{}
	}
	if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
		return string(descriptor.ValueFloat), sql.NullInt64{}, sql.NullFloat64{}
	}
	return string(descriptor.ValueFloat), sql.NullInt64{}, sql.NullFloat64{Float64: v.Float, Valid: true}
}

func valueFromColumns(typ string, i sql.NullInt64, f sql.NullFloat64) descriptor.Value {
	if descriptor.ValueType(typ) == descriptor.ValueInt && i.Valid {
		return descriptor.IntValue(i.Int64)
	}
	if f.Valid {
		return descriptor.FloatValue(f.Float64)
	}
	return descriptor.NaN()
}

//Personal.AI order the ending

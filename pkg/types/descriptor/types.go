// Package descriptor defines the descriptor result DTOs shared by the CLI,
// the HTTP API, the Kafka worker and the storage adapters: scalar values,
// per-molecule rows, result tables and calculation job envelopes.
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/MolDescriptor/pkg/types/common"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Value
// ─────────────────────────────────────────────────────────────────────────────

// ValueType tags the payload of a Value.
type ValueType string

const (
	ValueInt   ValueType = "int"
	ValueFloat ValueType = "float"
)

// Value is one user-visible descriptor result. Undefined results are a
// float NaN.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
}

func IntValue(v int64) Value     { return Value{Type: ValueInt, Int: v} }
func FloatValue(v float64) Value { return Value{Type: ValueFloat, Float: v} }

// NaN returns the undefined value.
func NaN() Value { return FloatValue(math.NaN()) }

// IsNaN reports whether v is undefined.
func (v Value) IsNaN() bool {
	return v.Type != ValueInt && math.IsNaN(v.Float)
}

// Float64 returns v as a float64. Int values are widened.
func (v Value) Float64() float64 {
	if v.Type == ValueInt {
		return float64(v.Int)
	}
	return v.Float
}

// String renders v the way CSV output expects: NaN as "nan", infinities as
// "inf" and "-inf".
func (v Value) String() string {
	if v.Type == ValueInt {
		return strconv.FormatInt(v.Int, 10)
	}
	switch {
	case math.IsNaN(v.Float):
		return "nan"
	case math.IsInf(v.Float, 1):
		return "inf"
	case math.IsInf(v.Float, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v.Float, 'g', -1, 64)
}

// MarshalJSON writes a bare number, or null for NaN and infinities. Float
// values always carry a fraction or exponent so the type survives a round
// trip.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Type == ValueInt {
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	}
	if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
		return []byte("null"), nil
	}
	s := strconv.FormatFloat(v.Float, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// UnmarshalJSON reads null as NaN, integral literals as int values and
// everything else as float values.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = NaN()
		return nil
	}
	if !bytes.ContainsAny(data, ".eE") {
		if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			*v = IntValue(i)
			return nil
		}
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("descriptor value: %w", err)
	}
	*v = FloatValue(f)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Column / Cell / Row
// ─────────────────────────────────────────────────────────────────────────────

// Column describes one output column.
type Column struct {
	Name string    `json:"name"`
	Key  string    `json:"key"`
	Type ValueType `json:"type"`
}

// Cell is one (name, value) pair of a row. Error is set when that single
// descriptor failed and Value is then NaN.
type Cell struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
	Error string `json:"error,omitempty"`
}

// Row holds the results for one molecule in column order. Error is set when
// the molecule as a whole failed (parse error, timeout); Cells is then empty.
type Row struct {
	MoleculeID string `json:"molecule_id"`
	SMILES     string `json:"smiles"`
	Cells      []Cell `json:"cells,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Failed reports whether the molecule could not be calculated at all.
func (r Row) Failed() bool { return r.Error != "" }

// Get returns the cell value for name.
func (r Row) Get(name string) (Value, bool) {
	for _, c := range r.Cells {
		if c.Name == name {
			return c.Value, true
		}
	}
	return Value{}, false
}

// Vector returns the row's values as float64s in column order. Missing cells
// and failed rows yield NaN entries.
func (r Row) Vector(columns []Column) []float64 {
	out := make([]float64, len(columns))
	for i, col := range columns {
		v, ok := r.Get(col.Name)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = v.Float64()
	}
	return out
}

// Table is the batch result: a fixed column list and one row per input
// molecule in input order.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Failed returns the number of rows whose molecule failed.
func (t Table) Failed() int {
	n := 0
	for _, r := range t.Rows {
		if r.Failed() {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalogue
// ─────────────────────────────────────────────────────────────────────────────

// DescriptorInfo describes one selectable descriptor.
type DescriptorInfo struct {
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	Family      string    `json:"family"`
	Type        ValueType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Requests / jobs / events
// ─────────────────────────────────────────────────────────────────────────────

// CalculateRequest is the synchronous calculation request body. SMILES is a
// shorthand for Molecules without IDs; both may be set.
type CalculateRequest struct {
	SMILES      []string                 `json:"smiles,omitempty"`
	Molecules   []molecule.MoleculeInput `json:"molecules,omitempty"`
	Descriptors []string                 `json:"descriptors,omitempty"`
	Persist     bool                     `json:"persist,omitempty"`
}

// Inputs returns Molecules followed by SMILES entries.
func (r CalculateRequest) Inputs() []molecule.MoleculeInput {
	out := make([]molecule.MoleculeInput, 0, len(r.Molecules)+len(r.SMILES))
	out = append(out, r.Molecules...)
	return append(out, molecule.FromSMILES(r.SMILES...)...)
}

// MaxBatchSize bounds the molecules accepted by one request or job.
const MaxBatchSize = 10000

// Validate checks the request shape.
func (r CalculateRequest) Validate() error {
	in := r.Inputs()
	if len(in) == 0 {
		return fmt.Errorf("at least one molecule is required")
	}
	if len(in) > MaxBatchSize {
		return fmt.Errorf("batch exceeds %d molecules", MaxBatchSize)
	}
	for i, m := range in {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("molecule %d: %w", i, err)
		}
	}
	return nil
}

// CalculateResponse wraps the result table.
type CalculateResponse struct {
	JobID    string        `json:"job_id,omitempty"`
	Table    Table         `json:"table"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// CalculationJob is the asynchronous job consumed from the request topic.
type CalculationJob struct {
	JobID       string                   `json:"job_id"`
	Molecules   []molecule.MoleculeInput `json:"molecules"`
	Descriptors []string                 `json:"descriptors,omitempty"`
	Export      bool                     `json:"export,omitempty"`
	Index       bool                     `json:"index,omitempty"`
	SubmittedAt common.Timestamp         `json:"submitted_at"`
}

// NewCalculationJob assigns a fresh job ID.
func NewCalculationJob(mols []molecule.MoleculeInput, descriptors ...string) CalculationJob {
	return CalculationJob{
		JobID:       string(common.NewID()),
		Molecules:   mols,
		Descriptors: descriptors,
		SubmittedAt: common.NewTimestamp(),
	}
}

// Validate checks the job shape.
func (j CalculationJob) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	return CalculateRequest{Molecules: j.Molecules, Descriptors: j.Descriptors}.Validate()
}

// CalculationCompleted is published on the results topic after a job.
type CalculationCompleted struct {
	common.BaseEvent
	JobID        string        `json:"job_id"`
	Molecules    int           `json:"molecules"`
	Failed       int           `json:"failed"`
	Columns      []string      `json:"columns"`
	ExportObject string        `json:"export_object,omitempty"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}

var _ common.DomainEvent = CalculationCompleted{}

// SimilarRequest asks for molecules whose descriptor vectors are nearest to
// the query molecule.
type SimilarRequest struct {
	SMILES string `json:"smiles"`
	TopK   int    `json:"top_k,omitempty"`
}

// SimilarHit is one nearest neighbour.
type SimilarHit struct {
	MoleculeID string  `json:"molecule_id"`
	SMILES     string  `json:"smiles,omitempty"`
	Distance   float32 `json:"distance"`
}

//Personal.AI order the ending

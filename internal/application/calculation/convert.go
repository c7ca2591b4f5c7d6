package calculation

import (
	"fmt"

	"github.com/turtacn/MolDescriptor/internal/config"
	domainDesc "github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// Columns describes the output columns of calc in registration order.
func Columns(calc *domainDesc.Calculator) []descriptor.Column {
	ds := calc.Descriptors()
	out := make([]descriptor.Column, len(ds))
	for i, d := range ds {
		out[i] = descriptor.Column{Name: d.Name(), Key: d.Key().String(), Type: valueType(d.ResultType())}
	}
	return out
}

// IndexDimension is the vector length of the similarity index: the column
// count of the default selection in cfg.
func IndexDimension(cfg config.CalculatorConfig, reg *domainDesc.Registry) (int, error) {
	ds, err := reg.Select(cfg.Descriptors...)
	if err != nil {
		return 0, err
	}
	return len(ds), nil
}

func keyStrings(calc *domainDesc.Calculator) []string {
	ds := calc.Descriptors()
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Key().String()
	}
	return out
}

func valueType(t domainDesc.ResultType) descriptor.ValueType {
	if t == domainDesc.ResultInt {
		return descriptor.ValueInt
	}
	return descriptor.ValueFloat
}

// toCell maps one engine result onto a cell. Failed descriptors carry NaN.
func toCell(r domainDesc.Result) descriptor.Cell {
	cell := descriptor.Cell{Name: r.Descriptor.Name()}
	if r.Err != nil {
		cell.Value = descriptor.NaN()
		cell.Error = r.Err.Error()
		return cell
	}
	v, err := toValue(r.Value)
	if err != nil {
		cell.Value = descriptor.NaN()
		cell.Error = fmt.Sprintf("%s: %v", r.Descriptor.Name(), err)
		return cell
	}
	cell.Value = v
	return cell
}

func toValue(v interface{}) (descriptor.Value, error) {
	switch x := v.(type) {
	case int64:
		return descriptor.IntValue(x), nil
	case int:
		return descriptor.IntValue(int64(x)), nil
	case float64:
		return descriptor.FloatValue(x), nil
	case float32:
		return descriptor.FloatValue(float64(x)), nil
	}
	return descriptor.Value{}, fmt.Errorf("unsupported result type %T", v)
}

func sameColumns(a, b []descriptor.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
	}
	return true
}

//Personal.AI order the ending

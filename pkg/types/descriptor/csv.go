package descriptor

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes t with a header of id, smiles, the column names and error.
// Undefined values and cells of failed rows render as "nan".
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(t.Columns)+3)
	header = append(header, "id", "smiles")
	header = append(header, t.ColumnNames()...)
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record[0] = row.MoleculeID
		record[1] = row.SMILES
		errMsg := row.Error
		for i, col := range t.Columns {
			v, ok := row.Get(col.Name)
			if !ok {
				v = NaN()
			}
			record[i+2] = v.String()
		}
		if errMsg == "" {
			for _, c := range row.Cells {
				if c.Error != "" {
					errMsg = c.Name + ": " + c.Error
					break
				}
			}
		}
		record[len(record)-1] = errMsg
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

//Personal.AI order the ending

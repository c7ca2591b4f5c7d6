package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// Output formats of calc and list.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

type calcOptions struct {
	file        string
	descriptors string
	format      string
	workers     int
}

// NewCalcCmd creates the calc command.
func NewCalcCmd() *cobra.Command {
	opts := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc [SMILES...]",
		Short: "Calculate descriptors for SMILES inputs",
		Long: "Calculate descriptors for SMILES given as arguments and/or read from --file.\n" +
			"File lines hold a SMILES optionally followed by whitespace and an identifier;\n" +
			"blank lines and lines starting with # are skipped. Use --file - for stdin.",
		Example: "  moldesc calc CCO 'c1ccccc1' --descriptors Radius,WienerIndex\n" +
			"  moldesc calc --file library.smi --format csv > out.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read SMILES from a file (- for stdin)")
	f.StringVarP(&opts.descriptors, "descriptors", "d", "", "comma separated families, names or keys (default: configured selection)")
	f.StringVarP(&opts.format, "format", "o", FormatTable, "output format: table|json|csv")
	f.IntVarP(&opts.workers, "workers", "w", 0, "molecules calculated concurrently (default: configured workers)")
	return cmd
}

func runCalc(cmd *cobra.Command, args []string, opts *calcOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	switch opts.format {
	case FormatTable, FormatJSON, FormatCSV:
	default:
		return errors.Newf(errors.ErrCodeValidation, "unsupported format %q, expected table|json|csv", opts.format)
	}
	if opts.workers < 0 {
		return errors.Newf(errors.ErrCodeValidation, "workers must be >= 0, got %d", opts.workers)
	}

	inputs := molecule.FromSMILES(args...)
	if opts.file != "" {
		fromFile, err := readInputs(cmd.InOrStdin(), opts.file)
		if err != nil {
			return err
		}
		inputs = append(inputs, fromFile...)
	}
	if len(inputs) == 0 {
		return errors.New(errors.ErrCodeValidation, "no SMILES given; pass arguments or --file")
	}

	calcCfg := cliCtx.Config.Calculator
	if opts.workers > 0 {
		calcCfg.Workers = opts.workers
	}
	svc, err := cliCtx.NewService(calcCfg, cliCtx.Logger)
	if err != nil {
		return err
	}

	ctx, cancel := cliCtx.commandContext(cmd)
	defer cancel()

	resp, err := svc.Calculate(ctx, &descriptor.CalculateRequest{
		Molecules:   inputs,
		Descriptors: splitList(opts.descriptors),
	})
	if err != nil {
		return err
	}

	cliCtx.Logger.Info("calculation finished",
		logging.Int("molecules", len(resp.Table.Rows)),
		logging.Int("failed", resp.Failed),
		logging.Duration("took", resp.Duration))

	out := cmd.OutOrStdout()
	switch opts.format {
	case FormatJSON:
		return printJSON(cmd, resp.Table)
	case FormatCSV:
		return descriptor.WriteCSV(out, resp.Table)
	default:
		fmt.Fprint(out, formatResultTable(resp.Table))
		if resp.Failed > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("%d of %d molecules failed", resp.Failed, len(resp.Table.Rows)))
		}
		return nil
	}
}

// readInputs reads one molecule per line from path, or from stdin when path
// is "-".
func readInputs(stdin io.Reader, path string) ([]molecule.MoleculeInput, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot open input file").WithDetail(path)
		}
		defer f.Close()
		r = f
	}
	return parseInputs(r)
}

func parseInputs(r io.Reader) ([]molecule.MoleculeInput, error) {
	var out []molecule.MoleculeInput
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), molecule.MaxSMILESLength+1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		in := molecule.MoleculeInput{Format: molecule.FormatSMILES, SMILES: fields[0]}
		if len(fields) > 1 {
			in.ID = strings.Join(fields[1:], " ")
		}
		out = append(out, in)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read inputs")
	}
	return out, nil
}

func formatResultTable(t descriptor.Table) string {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)

	header := append([]string{"ID", "SMILES"}, t.ColumnNames()...)
	header = append(header, "Error")
	table.Header(header)

	for _, row := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.MoleculeID, truncate(row.SMILES, 40))
		for _, col := range t.Columns {
			v, ok := row.Get(col.Name)
			switch {
			case row.Failed() || !ok:
				rec = append(rec, "-")
			case v.IsNaN():
				rec = append(rec, color.YellowString("nan"))
			default:
				rec = append(rec, v.String())
			}
		}
		errText := ""
		if row.Failed() {
			errText = color.RedString(truncate(row.Error, 60))
		}
		rec = append(rec, errText)
		table.Append(rec)
	}
	table.Render()

	fmt.Fprintf(&buf, "\n%d molecules, %d descriptors\n", len(t.Rows), len(t.Columns))
	return buf.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

//Personal.AI order the ending

package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

type listOptions struct {
	family string
	format string
}

// NewListCmd creates the list command. The default output is one name per
// line in column order.
func NewListCmd() *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available descriptors in column order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.family, "family", "", "only list this family")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "names", "output format: names|table|json")
	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	svc, err := cliCtx.NewService(cliCtx.Config.Calculator, cliCtx.Logger)
	if err != nil {
		return err
	}
	infos, err := svc.ListDescriptors(cmd.Context())
	if err != nil {
		return err
	}

	if opts.family != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if strings.EqualFold(info.Family, opts.family) {
				filtered = append(filtered, info)
			}
		}
		if len(filtered) == 0 {
			return errors.Newf(errors.ErrCodeUnknownDescriptor, "unknown descriptor family %q", opts.family)
		}
		infos = filtered
	}

	out := cmd.OutOrStdout()
	switch opts.format {
	case "names":
		for _, info := range infos {
			fmt.Fprintln(out, info.Name)
		}
	case FormatJSON:
		return printJSON(cmd, infos)
	case FormatTable:
		fmt.Fprint(out, formatCatalogue(infos))
	default:
		return errors.Newf(errors.ErrCodeValidation, "unsupported format %q, expected names|table|json", opts.format)
	}
	return nil
}

func formatCatalogue(infos []descriptor.DescriptorInfo) string {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.Header([]string{"Name", "Family", "Type", "Key"})
	for _, info := range infos {
		table.Append([]string{info.Name, info.Family, string(info.Type), info.Key})
	}
	table.Render()
	return buf.String()
}

//Personal.AI order the ending

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/exporters"
)

func newTreeCmd(opts *rootOptions) *cobra.Command {
	var (
		rootID int64
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the org chart forest, or the subtree under --root",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case exporters.FormatText, exporters.FormatJSON, exporters.FormatXLSX:
			default:
				return withCode(exitUsage, fmt.Errorf("invalid --format %q (expected text|json|xlsx)", format))
			}

			b, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			var roots []*hierarchy.Node
			if rootID > 0 {
				node, err := b.orgchart.GetOrgChartByEmployee(b.ctx, rootID)
				if err != nil {
					return serviceExit(err)
				}
				roots = []*hierarchy.Node{node}
			} else {
				roots, err = b.orgchart.GetOrgChart(b.ctx)
				if err != nil {
					return serviceExit(err)
				}
			}

			return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
				return exporters.Export(w, format, roots)
			})
		},
	}
	cmd.Flags().Int64Var(&rootID, "root", 0, "Employee id to root the tree at (default: whole forest)")
	cmd.Flags().StringVar(&format, "format", exporters.FormatText, "Output format: text|json|xlsx")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	return cmd
}

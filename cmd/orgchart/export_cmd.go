package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/snapshotfile"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database contents as a YAML snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			depts, err := b.departments.GetAll(b.ctx)
			if err != nil {
				return serviceExit(err)
			}
			positions, err := b.positions.GetAll(b.ctx)
			if err != nil {
				return serviceExit(err)
			}
			emps, err := b.employees.GetAll(b.ctx)
			if err != nil {
				return serviceExit(err)
			}

			return writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
				return snapshotfile.Encode(w, depts, positions, emps)
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	return cmd
}

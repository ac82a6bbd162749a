package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/snapshotfile"
)

type seedOutput struct {
	Command     string          `json:"command"`
	DurationMS  int64           `json:"duration_ms"`
	Departments map[int64]int64 `json:"departments"`
	Positions   map[int64]int64 `json:"positions"`
	Employees   map[int64]int64 `json:"employees"`
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert departments, positions and employees from a YAML snapshot file",
		Long: "Seed writes through the regular services, so every manager assignment is " +
			"checked. The output maps snapshot ids to the ids the database assigned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snapshotfile.ReadFile(file)
			if err != nil {
				return withCode(exitUsage, err)
			}
			b, err := openBackend(cmd, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			start := time.Now()
			ids, err := snapshotfile.Seed(b.ctx, f, snapshotfile.Targets{
				Departments: b.departments,
				Positions:   b.positions,
				Employees:   b.employees,
			})
			if err != nil {
				if _, ok := asServiceError(err); ok {
					return serviceExit(err)
				}
				return withCode(exitRejected, err)
			}
			return writeJSON(cmd.OutOrStdout(), seedOutput{
				Command:     "seed",
				DurationMS:  time.Since(start).Milliseconds(),
				Departments: ids.Departments,
				Positions:   ids.Positions,
				Employees:   ids.Employees,
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Snapshot YAML file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

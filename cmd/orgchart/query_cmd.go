package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, withCode(exitUsage, fmt.Errorf("invalid employee id %q", raw))
	}
	return id, nil
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		employeeID int64
		manager    string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check whether --manager may become the manager of --employee",
		Long:  `Pass --manager none to check promotion to root. Exits 2 when the assignment would be rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var managerID *int64
			if m := strings.ToLower(strings.TrimSpace(manager)); m != "none" {
				id, err := parseIDArg(m)
				if err != nil {
					return err
				}
				managerID = &id
			}

			b, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := b.orgchart.ValidateManager(b.ctx, employeeID, managerID)
			if err != nil {
				return serviceExit(err)
			}
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return withCode(exitRejected, fmt.Errorf("assignment rejected: %s", res.Reason))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&employeeID, "employee", 0, "Employee id (required)")
	cmd.Flags().StringVar(&manager, "manager", "", "Proposed manager id, or none (required)")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("manager")
	return cmd
}

type employeeListOutput struct {
	Command   string              `json:"command"`
	Employee  int64               `json:"employee_id"`
	Employees []employee.Employee `json:"employees"`
}

func newAncestorsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ancestors ID",
		Short: "Print the management chain from an employee up to its root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			b, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			chain, err := b.orgchart.Ancestors(b.ctx, id)
			if err != nil {
				return serviceExit(err)
			}
			return writeJSON(cmd.OutOrStdout(), employeeListOutput{Command: "ancestors", Employee: id, Employees: chain})
		},
	}
}

func newDescendantsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "descendants ID",
		Short: "Print every employee below ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			b, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			list, err := b.orgchart.Descendants(b.ctx, id)
			if err != nil {
				return serviceExit(err)
			}
			return writeJSON(cmd.OutOrStdout(), employeeListOutput{Command: "descendants", Employee: id, Employees: list})
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the stored hierarchy is a valid forest",
		Long:  "Prints an integrity report. Exits 2 when a cycle or dangling manager reference is found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			report, err := b.orgchart.CheckIntegrity(b.ctx)
			if err != nil {
				return serviceExit(err)
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Consistent {
				return withCode(exitRejected, fmt.Errorf("hierarchy is inconsistent: %s %v", report.Kind, report.IDs))
			}
			return nil
		},
	}
}

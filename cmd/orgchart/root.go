package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	snapshot string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "orgchart",
		Short:         "Org chart hierarchy tool: migrations, seeding, tree export and integrity checks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.snapshot, "snapshot", "", "Run read commands offline against a YAML snapshot file instead of the database")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newTreeCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newAncestorsCmd(opts))
	cmd.AddCommand(newDescendantsCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "checkinsched",
		Short:         "Checks in every upcoming flight on a reservation the moment its window opens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newCheckinCmd())
	root.AddCommand(newServerCmd())
	root.AddCommand(newOutcomesCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newTimezoneCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTimezoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timezone <IATA>",
		Short: "Resolve an airport code to its IANA time zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.HTTPTimeout)
			defer cancel()

			loc, err := d.zones.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[0], loc, time.Now().In(loc).Format("2006-01-02 15:04 MST"))
			return nil
		},
	}
}

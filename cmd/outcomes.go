package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/checkin-scheduler/internal/outcomes"
)

func newOutcomesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcomes",
		Short: "Inspect recorded check-in outcomes",
	}
	cmd.AddCommand(newOutcomesListCmd())
	return cmd
}

func newOutcomesListCmd() *cobra.Command {
	var (
		confirmation string
		limit        int
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List outcomes for a reservation, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := context.Background()
			conn, err := d.openStore(ctx, false)
			if err != nil {
				return err
			}
			defer conn.Close()

			recs, err := outcomes.NewRepo(conn).ListByReservation(ctx, strings.TrimSpace(confirmation), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no outcomes recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tLEG\tAIRPORT\tDEPARTURE\tSTATE\tBOARDING\tERROR")
			for _, r := range recs {
				var boarding []string
				for _, p := range r.Passes {
					boarding = append(boarding, p.BoardingGroup+p.BoardingPosition)
				}
				errMsg := ""
				if r.Error != nil {
					errMsg = *r.Error
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
					r.RunID, r.LegIndex, r.Airport, r.DepartureAt.UTC().Format(time.RFC3339),
					r.State, strings.Join(boarding, ","), errMsg)
			}
			return tw.Flush()
		},
	}

	c.Flags().StringVarP(&confirmation, "confirmation", "c", "", "confirmation number")
	c.Flags().IntVar(&limit, "limit", 50, "max rows")
	_ = c.MarkFlagRequired("confirmation")
	return c
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/checkin-scheduler/internal/checkin"
	"github.com/example/checkin-scheduler/internal/outcomes"
	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

func newCheckinCmd() *cobra.Command {
	var h southwest.Handle

	c := &cobra.Command{
		Use:   "checkin",
		Short: "Check in every upcoming leg of a reservation",
		Long: `Looks up the reservation, then waits for each future leg's check-in
window (24h before departure) and checks in. Legs whose window is more
than CHECKIN_TOO_EARLY away are reported as deferred; run again closer
to departure. Outcomes are recorded when DATABASE_URL is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := h.Validate(); err != nil {
				return err
			}
			d, err := loadDeps(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var sink scheduler.Sink
			if d.cfg.DatabaseURL != "" {
				conn, err := d.openStore(ctx, true)
				if err != nil {
					return err
				}
				defer conn.Close()
				sink = outcomes.NewRepo(conn)
			}

			rep, err := d.scheduler(sink).Run(ctx, h)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}

	c.Flags().StringVarP(&h.Number, "confirmation", "c", "", "confirmation number")
	c.Flags().StringVarP(&h.FirstName, "first", "f", "", "passenger first name")
	c.Flags().StringVarP(&h.LastName, "last", "l", "", "passenger last name")
	c.Flags().BoolVarP(&h.Verbose, "verbose", "v", false, "log full request and response bodies")
	_ = c.MarkFlagRequired("confirmation")
	_ = c.MarkFlagRequired("first")
	_ = c.MarkFlagRequired("last")
	return c
}

// printReport writes one line per leg and fails when any leg failed.
func printReport(w io.Writer, rep scheduler.Report) error {
	if rep.Legs == 0 {
		fmt.Fprintf(w, "%s: no upcoming flights\n", rep.Reservation)
		return nil
	}
	failed := 0
	for _, o := range rep.Outcomes {
		prefix := fmt.Sprintf("leg %d %s", o.Leg.Index, o.Leg.Airport())
		switch o.State {
		case checkin.Completed:
			for _, p := range o.Passes {
				fmt.Fprintf(w, "%s: %s got %s%s\n", prefix, p.Name, p.BoardingGroup, p.BoardingPosition)
			}
		case checkin.Deferred:
			fmt.Fprintf(w, "%s: too early, window opens in %s (%s)\n",
				prefix, o.Remaining.Round(time.Second), o.Window.OpensAt.Format(time.RFC3339))
		default:
			failed++
			fmt.Fprintf(w, "%s: %s: %v\n", prefix, o.State, o.Err)
		}
	}
	if rep.Interrupted {
		fmt.Fprintf(w, "interrupted with %d leg(s) pending\n", rep.Pending())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d leg(s) failed", failed, rep.Legs)
	}
	return nil
}

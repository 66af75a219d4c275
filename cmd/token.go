package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/checkin-scheduler/internal/auth"
	"github.com/example/checkin-scheduler/internal/ids"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate a trigger bearer token and its TRIGGER_TOKEN_HASH",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := ids.NewToken()
			if err != nil {
				return err
			}
			hash, err := auth.HashToken(tok)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "# give this to the caller as Authorization: Bearer <token>")
			fmt.Fprintf(out, "TRIGGER_TOKEN=%s\n", tok)
			fmt.Fprintf(out, "export TRIGGER_TOKEN_HASH='%s'\n", hash)
			return nil
		},
	}
}

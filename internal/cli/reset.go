package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/alive28-ledger/internal/repo"
	"github.com/tbourn/alive28-ledger/internal/sysutil"
)

var errResetNotConfirmed = errors.New("refusing to reset without --yes")

func newResetCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every user, log and idempotency record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !sysutil.IsTruthy(os.Getenv("ALIVECTL_ASSUME_YES")) {
				return errResetNotConfirmed
			}
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer closeDB(db)
			if err := repo.Reset(db); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "store reset")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

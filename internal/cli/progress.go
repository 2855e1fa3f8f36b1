package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/alive28-ledger/internal/services"
	"github.com/tbourn/alive28-ledger/internal/sysutil"
	"github.com/tbourn/alive28-ledger/internal/tasks"
)

func newProgressCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <address>",
		Short: "Print the derived progress of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(cmd, opts, args[0])
		},
	}
}

func runProgress(cmd *cobra.Command, opts *RootOptions, address string) error {
	addr, err := services.NormalizeAddress(address)
	if err != nil {
		return err
	}
	db, err := opts.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	d := services.NewDeps(db, sysutil.FirstNonEmpty(os.Getenv("DEFAULT_TIMEZONE"), "UTC"))
	d.Now = opts.now
	p, err := services.NewLedgerService(d, tasks.MustDefault(), nil).Progress(cmd.Context(), addr)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), opts.Format, p, func(w io.Writer) error {
		start := "-"
		if p.StartDateKey != nil {
			start = *p.StartDateKey
		}
		days := make([]string, len(p.CompletedDays))
		for i, d := range p.CompletedDays {
			days[i] = fmt.Sprint(d)
		}
		fmt.Fprintf(w, "address:        %s\n", p.Address)
		fmt.Fprintf(w, "timezone:       %s\n", p.Timezone)
		fmt.Fprintf(w, "start:          %s\n", start)
		fmt.Fprintf(w, "today:          %s (checked in: %t)\n", p.DateKey, p.TodayCheckedIn)
		fmt.Fprintf(w, "streak:         %d\n", p.Streak)
		fmt.Fprintf(w, "completed days: %s\n", strings.Join(days, ","))
		fmt.Fprintf(w, "day mints:      %d\n", p.DayMintCount)
		fmt.Fprintf(w, "milestones:     %v\n", p.Milestones.IDs())
		_, err := fmt.Fprintf(w, "final minted:   %t\n", p.FinalMinted)
		return err
	})
}

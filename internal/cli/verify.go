package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/repo"
	"github.com/tbourn/alive28-ledger/internal/services"
)

// ErrProofMismatch is returned when at least one stored proof does not
// recompute.
var ErrProofMismatch = errors.New("proof mismatch")

// VerifyReport summarizes a verification sweep.
type VerifyReport struct {
	Addresses  int                     `json:"addresses"`
	Checked    int                     `json:"checked"`
	Mismatches []services.VerifyResult `json:"mismatches"`
}

func newVerifyCommand(opts *RootOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute every stored proof hash",
		Long: `Recompute keccak256(dateKey|text|salt) for each stored log and compare it
with the stored proof hash. Exits non-zero when any log does not match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts, address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "only verify this wallet")
	return cmd
}

func runVerify(cmd *cobra.Command, opts *RootOptions, address string) error {
	ctx := cmd.Context()
	db, err := opts.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	var addrs []string
	if address != "" {
		a, err := services.NormalizeAddress(address)
		if err != nil {
			return fmt.Errorf("--address: %w", err)
		}
		addrs = []string{a}
	} else if addrs, err = repo.ListUserAddresses(ctx, db); err != nil {
		return err
	}

	rep := VerifyReport{Addresses: len(addrs), Mismatches: []services.VerifyResult{}}
	for _, a := range addrs {
		err := repo.EachLog(ctx, db, a, 200, func(l *domain.DailyLog) error {
			rep.Checked++
			if res := services.Verify(l); !res.Valid {
				rep.Mismatches = append(rep.Mismatches, *res)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	err = render(cmd.OutOrStdout(), opts.Format, rep, func(w io.Writer) error {
		for _, m := range rep.Mismatches {
			fmt.Fprintf(w, "MISMATCH %s %s %s stored=%s computed=%s\n", m.LogID, m.Address, m.DateKey, m.StoredHash, m.ComputedHash)
		}
		_, err := fmt.Fprintf(w, "checked %d logs across %d addresses, %d mismatches\n", rep.Checked, rep.Addresses, len(rep.Mismatches))
		return err
	})
	if err != nil {
		return err
	}
	if len(rep.Mismatches) > 0 {
		return fmt.Errorf("%w: %d of %d logs", ErrProofMismatch, len(rep.Mismatches), rep.Checked)
	}
	return nil
}

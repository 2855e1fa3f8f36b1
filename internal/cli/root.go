// Package cli implements alivectl, the operator tool for the ledger store.
// It talks to the database directly and never goes through the HTTP API.
package cli

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/repo"
	"github.com/tbourn/alive28-ledger/internal/sysutil"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DB     string // SQLite path/URI or MySQL DSN
	Driver string // "sqlite" | "mysql"
	Format string // "text" | "json"

	// Now is the clock used for derived state; nil means time.Now.
	Now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the alivectl root command.
func NewRootCommand() *cobra.Command {
	return newRoot(&RootOptions{})
}

func newRoot(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alivectl",
		Short: "Operate an alive28 ledger store",
		Long: `alivectl inspects and maintains the ledger database.

Connection settings default to DB_DRIVER, DB_DSN and DB_PATH.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", sysutil.FirstNonEmpty(os.Getenv("DB_DRIVER"), repo.DriverSQLite), "database driver (sqlite|mysql)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database path or DSN (default from DB_DSN / DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newProgressCommand(opts))
	cmd.AddCommand(newResetCommand(opts))
	return cmd
}

// source resolves the connection target from flags and environment.
func (o *RootOptions) source() (driver, dsn string) {
	driver = sysutil.FirstNonEmpty(o.Driver, repo.DriverSQLite)
	if driver == repo.DriverMySQL {
		return driver, sysutil.FirstNonEmpty(o.DB, os.Getenv("DB_DSN"))
	}
	return driver, sysutil.FirstNonEmpty(o.DB, os.Getenv("DB_PATH"), "alive28.db")
}

// open connects and migrates so commands work against a fresh store.
func (o *RootOptions) open() (*gorm.DB, error) {
	driver, dsn := o.source()
	if dsn == "" {
		return nil, fmt.Errorf("no database configured for driver %s", driver)
	}
	db, err := repo.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

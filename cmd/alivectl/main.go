// Command alivectl is the operator CLI for the ledger store.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/tbourn/alive28-ledger/internal/cli"
	"github.com/tbourn/alive28-ledger/internal/sysutil"
)

func main() {
	_ = godotenv.Load()
	sysutil.SetupLogger(sysutil.LogOptions{
		Level:  sysutil.FirstNonEmpty(os.Getenv("LOG_LEVEL"), "warn"),
		Pretty: true,
	})
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

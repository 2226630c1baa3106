// veilpay is the command line interface of the confidential balance ledger.
package main

import (
	"fmt"
	"os"

	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/internal/flags"
	"github.com/urfave/cli/v2"
)

const (
	defaultKeyfileName = "keyfile.json"
)

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app *cli.App

func init() {
	app = flags.NewApp(gitCommit, gitDate, "the veilpay confidential balance ledger")
	app.Flags = []cli.Flag{
		utils.VerbosityFlag,
	}
	app.Commands = []*cli.Command{
		commandKeygen,
		commandInitMint,
		commandInitBalance,
		commandTransfer,
		commandBalance,
		commandEvents,
		commandScan,
		commandEncrypt,
		commandCommitment,
		commandTag,
		commandStealth,
		commandDumpConfig,
	}
	app.Before = func(ctx *cli.Context) error {
		utils.SetupLogging(ctx)
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

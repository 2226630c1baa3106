package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/ledger"
	"github.com/urfave/cli/v2"
)

var commandDumpConfig = &cli.Command{
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "[ <dumpfile> ]",
	Flags:       utils.LedgerFlags,
	Description: `The dumpconfig command shows configuration values.`,
	Action:      dumpConfig,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type veilpayConfig struct {
	Ledger ledger.Config
}

func loadConfig(file string, cfg *veilpayConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies flags on top.
func makeConfig(ctx *cli.Context) veilpayConfig {
	cfg := veilpayConfig{Ledger: ledger.Defaults}
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}
	utils.SetLedgerConfig(ctx, &cfg.Ledger)
	return cfg
}

// openLedger opens the ledger described by the command line.
func openLedger(ctx *cli.Context) (*ledger.Ledger, error) {
	cfg := makeConfig(ctx)
	return ledger.Open(&cfg.Ledger)
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	dump.Write(out)
	return nil
}

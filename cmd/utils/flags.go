// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for veilpay commands.
package utils

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tos-network/veilpay/internal/flags"
	"github.com/tos-network/veilpay/ledger"
	"github.com/tos-network/veilpay/log"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the ledger database (empty = in-memory)",
		Value:    DefaultDataDir(),
		Category: flags.LedgerCategory,
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.LedgerCategory,
	}
	KeyFileFlag = &cli.StringFlag{
		Name:     "keyfile",
		Usage:    "Key file signing the instruction",
		Value:    "keyfile.json",
		Category: flags.AccountCategory,
	}
	JSONFlag = &cli.BoolFlag{
		Name:     "json",
		Usage:    "Output JSON instead of human-readable format",
		Category: flags.MiscCategory,
	}

	// Performance tuning settings
	CacheDatabaseFlag = &cli.IntFlag{
		Name:     "cache.database",
		Usage:    "Megabytes of memory allocated to the leveldb cache",
		Value:    ledger.Defaults.DatabaseCache,
		Category: flags.PerfCategory,
	}
	CacheRecordsFlag = &cli.IntFlag{
		Name:     "cache.records",
		Usage:    "Bytes of memory allocated to the encoded record cache",
		Value:    ledger.Defaults.RecordCacheBytes,
		Category: flags.PerfCategory,
	}
	SlotDurationFlag = &cli.DurationFlag{
		Name:     "slot.duration",
		Usage:    "Wall-clock length of one ledger slot",
		Value:    ledger.Defaults.SlotDuration,
		Category: flags.LedgerCategory,
	}
	ParallelFlag = &cli.IntFlag{
		Name:     "parallel",
		Usage:    "Maximum number of instructions executed concurrently in a batch",
		Value:    ledger.Defaults.Parallel,
		Category: flags.PerfCategory,
	}
	MaxBatchFlag = &cli.IntFlag{
		Name:     "batch.max",
		Usage:    "Maximum number of instructions accepted in one batch",
		Value:    ledger.Defaults.MaxBatchSize,
		Category: flags.LedgerCategory,
	}

	// Logging and debug settings
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    int(log.LvlWarn),
		Category: flags.LoggingCategory,
	}
)

// LedgerFlags are the flags shared by every command opening the ledger.
var LedgerFlags = []cli.Flag{
	DataDirFlag,
	ConfigFileFlag,
	CacheDatabaseFlag,
	CacheRecordsFlag,
	SlotDurationFlag,
	ParallelFlag,
	MaxBatchFlag,
}

// DefaultDataDir is the default data directory to use for the ledger.
func DefaultDataDir() string {
	home := homeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".veilpay")
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return ""
}

// SetLedgerConfig applies ledger-related command line flags to the config.
func SetLedgerConfig(ctx *cli.Context, cfg *ledger.Config) {
	if ctx.IsSet(DataDirFlag.Name) || cfg.DataDir == "" {
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(CacheDatabaseFlag.Name) {
		cfg.DatabaseCache = ctx.Int(CacheDatabaseFlag.Name)
	}
	if ctx.IsSet(CacheRecordsFlag.Name) {
		cfg.RecordCacheBytes = ctx.Int(CacheRecordsFlag.Name)
	}
	if ctx.IsSet(SlotDurationFlag.Name) {
		cfg.SlotDuration = ctx.Duration(SlotDurationFlag.Name)
	}
	if ctx.IsSet(ParallelFlag.Name) {
		cfg.Parallel = ctx.Int(ParallelFlag.Name)
	}
	if ctx.IsSet(MaxBatchFlag.Name) {
		cfg.MaxBatchSize = ctx.Int(MaxBatchFlag.Name)
	}
	if cfg.SlotDuration < time.Millisecond {
		Fatalf("Slot duration %v is below one millisecond", cfg.SlotDuration)
	}
}

// SetupLogging installs the terminal log handler at the configured verbosity.
func SetupLogging(ctx *cli.Context) {
	log.Root().SetHandler(log.NewTerminalHandler(log.Lvl(ctx.Int(VerbosityFlag.Name))))
}

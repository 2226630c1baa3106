package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
	"github.com/urfave/cli/v2"
)

var (
	fromFlag = &cli.Uint64Flag{
		Name:  "from",
		Usage: "index of the first event to read",
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of events to read (0 = to the end of the log)",
	}
	secretFlag = &cli.StringSliceFlag{
		Name:  "secret",
		Usage: "shared secret (32 byte hex) used to tag transfers",
	}
)

type outputEvent struct {
	Index           uint64 `json:"index"`
	Kind            string `json:"kind"`
	Slot            uint64 `json:"slot"`
	UnixSeconds     int64  `json:"unixSeconds"`
	OwnerCommitment string `json:"ownerCommitment,omitempty"`
	CommitmentHash  string `json:"commitmentHash,omitempty"`
	EncryptedTag    string `json:"encryptedTag,omitempty"`
	EventType       uint8  `json:"eventType,omitempty"`
	SenderBump      uint8  `json:"senderBump,omitempty"`
}

func newOutputEvent(ev types.IndexedEvent) outputEvent {
	out := outputEvent{Index: ev.Index, Kind: ev.Event.Kind().String()}
	switch e := ev.Event.(type) {
	case *types.BalanceInitializedEvent:
		out.Slot, out.UnixSeconds = e.Slot, e.UnixSeconds
		out.OwnerCommitment = e.OwnerCommitment.Hex()
	case *types.PrivateTransferEvent:
		out.Slot, out.UnixSeconds = e.Slot, e.UnixSeconds
		out.CommitmentHash = e.CommitmentHash.Hex()
		out.EncryptedTag = e.EncryptedTag.Hex()
		out.EventType, out.SenderBump = e.EventType, e.SenderBump
	}
	return out
}

var commandEvents = &cli.Command{
	Name:  "events",
	Usage: "list the ledger event log",
	Flags: append([]cli.Flag{fromFlag, limitFlag, utils.JSONFlag}, utils.LedgerFlags...),
	Description: `
Print the events appended to the ledger log, oldest first.`,
	Action: func(ctx *cli.Context) error {
		l, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		events, err := l.Events(ctx.Uint64(fromFlag.Name), ctx.Int(limitFlag.Name))
		if err != nil {
			return err
		}
		out := make([]outputEvent, len(events))
		for i, ev := range events {
			out[i] = newOutputEvent(ev)
		}
		if ctx.Bool(utils.JSONFlag.Name) {
			mustPrintJSON(ctx.App.Writer, out)
			return nil
		}
		table := tablewriter.NewWriter(ctx.App.Writer)
		table.SetHeader([]string{"Index", "Kind", "Slot", "Time", "Commitment", "Tag"})
		for _, ev := range out {
			commitment := ev.OwnerCommitment
			if ev.CommitmentHash != "" {
				commitment = ev.CommitmentHash
			}
			table.Append([]string{
				strconv.FormatUint(ev.Index, 10),
				ev.Kind,
				strconv.FormatUint(ev.Slot, 10),
				strconv.FormatInt(ev.UnixSeconds, 10),
				commitment,
				ev.EncryptedTag,
			})
		}
		table.Render()
		return nil
	},
}

type outputMatch struct {
	Index          uint64 `json:"index"`
	Slot           uint64 `json:"slot"`
	CommitmentHash string `json:"commitmentHash"`
	Secret         string `json:"secret"`
}

var commandScan = &cli.Command{
	Name:      "scan",
	Usage:     "find transfers tagged for a recipient",
	ArgsUsage: "<recipient>",
	Flags:     append([]cli.Flag{secretFlag, fromFlag, limitFlag, utils.JSONFlag}, utils.LedgerFlags...),
	Description: `
Scan the event log for private transfers whose encrypted tag was produced
for the recipient under one of the given shared secrets.`,
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one recipient address")
		}
		recipient, err := parseAddress(ctx.Args().First(), "recipient")
		if err != nil {
			return err
		}
		var secrets []common.Hash
		for _, s := range ctx.StringSlice(secretFlag.Name) {
			secret, err := parseHash(s, "secret")
			if err != nil {
				return err
			}
			secrets = append(secrets, secret)
		}
		if len(secrets) == 0 {
			return fmt.Errorf("at least one --%s is required", secretFlag.Name)
		}
		l, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		matches, err := l.Scan(recipient, secrets, ctx.Uint64(fromFlag.Name), ctx.Int(limitFlag.Name))
		if err != nil {
			return err
		}
		out := make([]outputMatch, len(matches))
		for i, m := range matches {
			out[i] = outputMatch{
				Index:          m.Index,
				Slot:           m.Event.Slot,
				CommitmentHash: m.Event.CommitmentHash.Hex(),
				Secret:         m.Secret.Hex(),
			}
		}
		if ctx.Bool(utils.JSONFlag.Name) {
			mustPrintJSON(ctx.App.Writer, out)
			return nil
		}
		for _, m := range out {
			fmt.Fprintf(ctx.App.Writer, "Event #%d slot=%d commitment=%s\n", m.Index, m.Slot, m.CommitmentHash)
		}
		fmt.Fprintf(ctx.App.Writer, "%d matching transfers\n", len(out))
		return nil
	},
}

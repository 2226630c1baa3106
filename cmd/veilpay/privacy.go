package main

import (
	"errors"
	"fmt"

	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/cspl"
	"github.com/tos-network/veilpay/core/privacy"
	"github.com/urfave/cli/v2"
)

var errVerifyFailed = errors.New("verification failed")

var commandEncrypt = &cli.Command{
	Name:      "encrypt",
	Usage:     "encrypt a plaintext amount",
	ArgsUsage: "<amount>",
	Flags:     []cli.Flag{utils.JSONFlag},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return errors.New("expected exactly one amount")
		}
		amount, err := parseUint64(ctx.Args().First(), "amount")
		if err != nil {
			return err
		}
		ct := cspl.EncryptAmount(amount)
		out := struct {
			Amount     uint64 `json:"amount"`
			Ciphertext string `json:"ciphertext"`
			Value      uint64 `json:"value"`
		}{amount, ct.Hex(), cspl.Value(ct)}
		if ctx.Bool(utils.JSONFlag.Name) {
			mustPrintJSON(ctx.App.Writer, out)
		} else {
			fmt.Fprintln(ctx.App.Writer, "Ciphertext:    ", out.Ciphertext)
			fmt.Fprintln(ctx.App.Writer, "Value:         ", out.Value)
		}
		return nil
	},
}

var commandCommitment = &cli.Command{
	Name:      "commitment",
	Usage:     "compute or verify a transfer commitment hash",
	ArgsUsage: "<ciphertext> <nonce> <recipient> [ <claimed> ]",
	Description: `
Print the commitment hash binding an encrypted amount and nonce to a
recipient. When a claimed hash is given, verify it instead.`,
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 3 && ctx.NArg() != 4 {
			return errors.New("expected ciphertext, nonce, recipient and an optional claimed hash")
		}
		args := ctx.Args()
		amount, err := parseCiphertext(args.Get(0))
		if err != nil {
			return err
		}
		nonce, err := parseUint64(args.Get(1), "nonce")
		if err != nil {
			return err
		}
		recipient, err := parseAddress(args.Get(2), "recipient")
		if err != nil {
			return err
		}
		if ctx.NArg() == 3 {
			fmt.Fprintln(ctx.App.Writer, privacy.CommitmentHash(amount, nonce, recipient).Hex())
			return nil
		}
		claimed, err := parseHash(args.Get(3), "commitment")
		if err != nil {
			return err
		}
		return reportVerified(ctx, privacy.VerifyCommitmentHash(claimed, amount, nonce, recipient))
	},
}

var commandTag = &cli.Command{
	Name:      "tag",
	Usage:     "compute or verify an encrypted recipient tag",
	ArgsUsage: "<recipient> <secret> [ <claimed> ]",
	Action: func(ctx *cli.Context) error {
		recipient, secret, err := recipientAndSecret(ctx, 3)
		if err != nil {
			return err
		}
		if ctx.NArg() == 2 {
			fmt.Fprintln(ctx.App.Writer, privacy.EncryptedTag(recipient, secret).Hex())
			return nil
		}
		claimed, err := parseHash(ctx.Args().Get(2), "tag")
		if err != nil {
			return err
		}
		return reportVerified(ctx, privacy.VerifyEncryptedTag(claimed, recipient, secret))
	},
}

var commandStealth = &cli.Command{
	Name:      "stealth",
	Usage:     "derive the one-time stealth address of a recipient",
	ArgsUsage: "<recipient> <secret>",
	Action: func(ctx *cli.Context) error {
		recipient, secret, err := recipientAndSecret(ctx, 2)
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, privacy.StealthAddress(recipient, secret).Hex())
		return nil
	},
}

// recipientAndSecret parses the two leading positional arguments, allowing
// at most maxArgs arguments in total.
func recipientAndSecret(ctx *cli.Context, maxArgs int) (common.Address, common.Hash, error) {
	if ctx.NArg() < 2 || ctx.NArg() > maxArgs {
		return common.Address{}, common.Hash{}, fmt.Errorf("expected recipient and secret, got %d arguments", ctx.NArg())
	}
	recipient, err := parseAddress(ctx.Args().Get(0), "recipient")
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	secret, err := parseHash(ctx.Args().Get(1), "secret")
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	return recipient, secret, nil
}

func reportVerified(ctx *cli.Context, ok bool) error {
	if !ok {
		return errVerifyFailed
	}
	fmt.Fprintln(ctx.App.Writer, "OK")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/cspl"
	"github.com/tos-network/veilpay/core/privacy"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/internal/flags"
	"github.com/tos-network/veilpay/ledger"
	"github.com/urfave/cli/v2"
)

var (
	csplConfigFlag = &cli.StringFlag{
		Name:  "cspl-config",
		Usage: "64 byte hex configuration stored in the mint",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "owner address of the receiving balance",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:  "amount",
		Usage: "plaintext amount, encrypted before submission",
	}
	ciphertextFlag = &cli.StringFlag{
		Name:  "ciphertext",
		Usage: "pre-encrypted 64 byte hex amount",
	}
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "expected sender nonce (default: the current nonce)",
	}
	tagSecretFlag = &cli.StringFlag{
		Name:  "secret",
		Usage: "shared secret (32 byte hex) tagging the transfer for the recipient",
	}
)

var commandKeygen = &cli.Command{
	Name:      "keygen",
	Usage:     "generate new keyfile",
	ArgsUsage: "[ <keyfile> ]",
	Flags:     []cli.Flag{utils.JSONFlag},
	Description: `
Generate a new ed25519 signing key and store it in a keyfile.`,
	Action: func(ctx *cli.Context) error {
		keyfilepath := ctx.Args().First()
		if keyfilepath == "" {
			keyfilepath = defaultKeyfileName
		}
		key, err := newKey()
		if err != nil {
			utils.Fatalf("Failed to generate key: %v", err)
		}
		if err := writeKeyFile(keyfilepath, key); err != nil {
			return err
		}
		out := struct {
			Address string `json:"address"`
			Keyfile string `json:"keyfile"`
		}{key.Address.Hex(), keyfilepath}
		if ctx.Bool(utils.JSONFlag.Name) {
			mustPrintJSON(ctx.App.Writer, out)
		} else {
			fmt.Fprintln(ctx.App.Writer, "Address:       ", out.Address)
			fmt.Fprintln(ctx.App.Writer, "Keyfile:       ", filepath.Clean(out.Keyfile))
		}
		return nil
	},
}

var commandInitMint = &cli.Command{
	Name:  "init-mint",
	Usage: "create the mint owned by the key",
	Flags: append([]cli.Flag{utils.KeyFileFlag, csplConfigFlag, utils.JSONFlag}, utils.LedgerFlags...),
	Action: func(ctx *cli.Context) error {
		var config types.CSPLConfig
		if s := ctx.String(csplConfigFlag.Name); s != "" {
			if err := config.UnmarshalText([]byte(s)); err != nil {
				return fmt.Errorf("invalid mint configuration: %v", err)
			}
		}
		key := loadKey(ctx)
		return submit(ctx, types.SignInstruction(types.NewInitializeMint(config), key.PrivateKey))
	},
}

var commandInitBalance = &cli.Command{
	Name:  "init-balance",
	Usage: "create the confidential balance owned by the key",
	Flags: append([]cli.Flag{utils.KeyFileFlag, utils.JSONFlag}, utils.LedgerFlags...),
	Action: func(ctx *cli.Context) error {
		key := loadKey(ctx)
		return submit(ctx, types.SignInstruction(types.NewInitBalance(), key.PrivateKey))
	},
}

var commandTransfer = &cli.Command{
	Name:  "transfer",
	Usage: "move an encrypted amount to another balance",
	Flags: append([]cli.Flag{
		utils.KeyFileFlag,
		toFlag,
		amountFlag,
		ciphertextFlag,
		nonceFlag,
		tagSecretFlag,
		utils.JSONFlag,
	}, utils.LedgerFlags...),
	Description: `
Transfer an encrypted amount from the key's balance to the balance owned by
--to. The amount is given either in plaintext with --amount or already
encrypted with --ciphertext.`,
	Action: func(ctx *cli.Context) error {
		if err := flags.CheckExclusive(ctx, amountFlag.Name, ciphertextFlag.Name); err != nil {
			return err
		}
		if !ctx.IsSet(amountFlag.Name) && !ctx.IsSet(ciphertextFlag.Name) {
			return fmt.Errorf("one of --%s or --%s is required", amountFlag.Name, ciphertextFlag.Name)
		}
		to, err := parseAddress(ctx.String(toFlag.Name), "recipient")
		if err != nil {
			return err
		}
		amount := cspl.EncryptAmount(ctx.Uint64(amountFlag.Name))
		if ctx.IsSet(ciphertextFlag.Name) {
			if amount, err = parseCiphertext(ctx.String(ciphertextFlag.Name)); err != nil {
				return err
			}
		}
		var secret common.Hash
		if s := ctx.String(tagSecretFlag.Name); s != "" {
			if secret, err = parseHash(s, "secret"); err != nil {
				return err
			}
		}
		key := loadKey(ctx)

		l, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		senderAddr, err := l.BalanceAddress(key.Address)
		if err != nil {
			return err
		}
		receiverAddr, err := l.BalanceAddress(to)
		if err != nil {
			return err
		}
		nonce := ctx.Uint64(nonceFlag.Name)
		if !ctx.IsSet(nonceFlag.Name) {
			bal, err := l.Balance(senderAddr)
			if err != nil {
				return fmt.Errorf("sender balance: %w", err)
			}
			nonce = bal.Nonce
		}
		payload := types.PrivateTransferPayload{
			SenderBalance:   senderAddr,
			ReceiverBalance: receiverAddr,
			TransferArgs: types.TransferArgs{
				EncryptedAmount: amount,
				ExpectedNonce:   nonce,
				CommitmentHash:  privacy.CommitmentHash(amount, nonce, to),
				EncryptedTag:    privacy.EncryptedTag(to, secret),
			},
		}
		tx := types.SignInstruction(types.NewPrivateTransfer(payload), key.PrivateKey)
		return apply(ctx, l, tx)
	},
}

// submit opens the ledger and applies tx.
func submit(ctx *cli.Context, tx *types.SignedInstruction) error {
	l, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer l.Close()
	return apply(ctx, l, tx)
}

func apply(ctx *cli.Context, l *ledger.Ledger, tx *types.SignedInstruction) error {
	receipt, err := l.Apply(context.Background(), tx)
	if receipt == nil {
		return err
	}
	return printReceipt(ctx.App.Writer, ctx.Bool(utils.JSONFlag.Name), receipt)
}

type outputBalance struct {
	Owner            string `json:"owner"`
	Address          string `json:"address"`
	OwnerCommitment  string `json:"ownerCommitment"`
	EncryptedBalance string `json:"encryptedBalance"`
	Value            uint64 `json:"value"`
	Nonce            uint64 `json:"nonce"`
	Bump             uint8  `json:"bump"`
}

var commandBalance = &cli.Command{
	Name:      "balance",
	Usage:     "show the confidential balance of an owner",
	ArgsUsage: "<owner>",
	Flags:     append([]cli.Flag{utils.JSONFlag}, utils.LedgerFlags...),
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return errors.New("expected exactly one owner address")
		}
		owner, err := parseAddress(ctx.Args().First(), "owner")
		if err != nil {
			return err
		}
		l, err := openLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close()

		addr, err := l.BalanceAddress(owner)
		if err != nil {
			return err
		}
		bal, err := l.Balance(addr)
		if err != nil {
			return err
		}
		out := outputBalance{
			Owner:            owner.Hex(),
			Address:          addr.Hex(),
			OwnerCommitment:  bal.OwnerCommitment.Hex(),
			EncryptedBalance: bal.EncryptedBalance.Hex(),
			Value:            cspl.Value(bal.EncryptedBalance),
			Nonce:            bal.Nonce,
			Bump:             bal.Bump,
		}
		if ctx.Bool(utils.JSONFlag.Name) {
			mustPrintJSON(ctx.App.Writer, out)
			return nil
		}
		w := ctx.App.Writer
		fmt.Fprintln(w, "Owner:         ", out.Owner)
		fmt.Fprintln(w, "Record:        ", out.Address)
		fmt.Fprintln(w, "Commitment:    ", out.OwnerCommitment)
		fmt.Fprintln(w, "Balance:       ", out.EncryptedBalance)
		fmt.Fprintln(w, "Value:         ", out.Value)
		fmt.Fprintln(w, "Nonce:         ", out.Nonce)
		return nil
	},
}

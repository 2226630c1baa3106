package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/cspl"
	"github.com/tos-network/veilpay/core/privacy"
	"github.com/tos-network/veilpay/core/types"
)

// runVeilpay runs the app in-process and returns what it wrote.
func runVeilpay(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"veilpay"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runVeilpay(t, args...)
	require.NoError(t, err, "veilpay %s\n%s", strings.Join(args, " "), out)
	return out
}

func keygen(t *testing.T, dir, name string) (string, common.Address) {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	var out struct{ Address string }
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "keygen", "--json", path)), &out))
	return path, common.HexToAddress(out.Address)
}

func TestKeyfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, addr := keygen(t, dir, "alice")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	key := new(Key)
	require.NoError(t, json.Unmarshal(data, key))
	require.Equal(t, addr, key.Address)

	// A second keygen must not clobber the file.
	_, err = runVeilpay(t, "keygen", path)
	require.ErrorContains(t, err, "already exists")

	// Tampered address is detected.
	var enc keyJSON
	require.NoError(t, json.Unmarshal(data, &enc))
	enc.Address = common.Address{1}.Hex()
	bad, _ := json.Marshal(enc)
	require.ErrorContains(t, json.Unmarshal(bad, new(Key)), "mismatch")
}

func TestTransferFlow(t *testing.T) {
	var (
		dir         = t.TempDir()
		datadir     = "--datadir=" + filepath.Join(dir, "ledger")
		secret      = common.Hash{0x5e}
		aliceKey, a = keygen(t, dir, "alice")
		bobKey, b   = keygen(t, dir, "bob")
		amount      = cspl.EncryptAmount(100)
		readBalance = func(owner common.Address) outputBalance {
			var bal outputBalance
			require.NoError(t, json.Unmarshal([]byte(mustRun(t, "balance", "--json", datadir, owner.Hex())), &bal))
			return bal
		}
	)
	mustRun(t, "init-balance", "--keyfile", aliceKey, datadir)
	mustRun(t, "init-balance", "--keyfile", bobKey, datadir)

	_, err := runVeilpay(t, "init-balance", "--keyfile", bobKey, datadir)
	require.ErrorContains(t, err, "account already exists")

	var receipt outputReceipt
	out := mustRun(t, "transfer", "--json", "--keyfile", aliceKey, "--to", b.Hex(), "--amount=100", "--secret", secret.Hex(), datadir)
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	require.Nil(t, receipt.Error)
	require.Equal(t, "private_transfer", receipt.Action)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, uint64(2), receipt.Events[0].Index)
	require.Equal(t, privacy.CommitmentHash(amount, 0, b).Hex(), receipt.Events[0].CommitmentHash)

	bobBal := readBalance(b)
	require.Equal(t, amount.Hex(), bobBal.EncryptedBalance)
	require.Equal(t, uint64(1), bobBal.Nonce)
	require.Equal(t, uint64(1), readBalance(a).Nonce)

	// Replaying the old nonce is rejected with its stable code.
	out, err = runVeilpay(t, "transfer", "--json", "--keyfile", aliceKey, "--to", b.Hex(), "--amount=100", "--nonce=0", datadir)
	require.ErrorIs(t, err, types.ErrInvalidNonce)
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	require.Equal(t, uint32(types.CodeInvalidNonce), receipt.Error.Code)

	var events []outputEvent
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "events", "--json", datadir)), &events))
	require.Len(t, events, 3)
	require.Equal(t, "BalanceInitialized", events[0].Kind)
	require.Equal(t, "PrivateTransfer", events[2].Kind)

	table := mustRun(t, "events", "--from=1", datadir)
	require.Contains(t, table, "PrivateTransfer")
	require.NotContains(t, table, privacy.OwnerCommitment(a).Hex())

	var matches []outputMatch
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "scan", "--json", "--secret", secret.Hex(), datadir, b.Hex())), &matches))
	require.Len(t, matches, 1)
	require.Equal(t, uint64(2), matches[0].Index)
}

func TestTransferFlagValidation(t *testing.T) {
	dir := t.TempDir()
	key, _ := keygen(t, dir, "carol")
	to := common.Address{2}.Hex()

	_, err := runVeilpay(t, "transfer", "--keyfile", key, "--to", to, "--datadir", dir)
	require.ErrorContains(t, err, "is required")

	_, err = runVeilpay(t, "transfer", "--keyfile", key, "--to", to, "--amount=1", "--ciphertext", cspl.EncryptAmount(1).Hex(), "--datadir", dir)
	require.ErrorContains(t, err, "can't be used at the same time")

	_, err = runVeilpay(t, "transfer", "--keyfile", key, "--to", "0x1234", "--amount=1", "--datadir", dir)
	require.ErrorContains(t, err, "invalid recipient address")
}

func TestPrivacyCommands(t *testing.T) {
	var (
		recipient = common.Address{0xbb}
		secret    = common.Hash{0x07}
		amount    = cspl.EncryptAmount(5)
	)
	var enc struct {
		Ciphertext string
		Value      uint64
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "encrypt", "--json", "5")), &enc))
	require.Equal(t, amount.Hex(), enc.Ciphertext)
	require.Equal(t, uint64(0xa448e6faa5aed95e), enc.Value)

	commitment := strings.TrimSpace(mustRun(t, "commitment", amount.Hex(), "3", recipient.Hex()))
	require.Equal(t, privacy.CommitmentHash(amount, 3, recipient).Hex(), commitment)
	require.Equal(t, "OK\n", mustRun(t, "commitment", amount.Hex(), "3", recipient.Hex(), commitment))
	_, err := runVeilpay(t, "commitment", amount.Hex(), "4", recipient.Hex(), commitment)
	require.ErrorIs(t, err, errVerifyFailed)

	tag := strings.TrimSpace(mustRun(t, "tag", recipient.Hex(), secret.Hex()))
	require.Equal(t, privacy.EncryptedTag(recipient, secret).Hex(), tag)
	require.Equal(t, "OK\n", mustRun(t, "tag", recipient.Hex(), secret.Hex(), tag))

	stealth := strings.TrimSpace(mustRun(t, "stealth", recipient.Hex(), secret.Hex()))
	require.Equal(t, privacy.StealthAddress(recipient, secret).Hex(), stealth)
}

func TestDumpConfig(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, "dumpconfig", "--datadir", dir, "--parallel=3")
	require.Contains(t, out, "[Ledger]")
	require.Contains(t, out, "Parallel = 3")

	file := filepath.Join(dir, "veilpay.toml")
	require.NoError(t, os.WriteFile(file, []byte(out), 0644))

	var cfg veilpayConfig
	require.NoError(t, loadConfig(file, &cfg))
	require.Equal(t, 3, cfg.Ledger.Parallel)
	require.Equal(t, dir, cfg.Ledger.DataDir)

	require.NoError(t, os.WriteFile(file, []byte("[Ledger]\nBogus = 1\n"), 0644))
	require.ErrorContains(t, loadConfig(file, &cfg), "field 'Bogus' is not defined")
}

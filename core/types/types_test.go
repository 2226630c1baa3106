package types

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"testing"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/params"
)

func TestErrorTaxonomy(t *testing.T) {
	want := []struct {
		err  *Error
		code ErrorCode
		name string
	}{
		{ErrUnauthorizedSender, 6000, "UnauthorizedSender"},
		{ErrInsufficientBalance, 6001, "InsufficientBalance"},
		{ErrUnauthorizedAccess, 6002, "UnauthorizedAccess"},
		{ErrTransactionLimitExceeded, 6003, "TransactionLimitExceeded"},
		{ErrAccountNotFound, 6004, "AccountNotFound"},
		{ErrInvalidTransactionType, 6005, "InvalidTransactionType"},
		{ErrInvalidNonce, 6006, "InvalidNonce"},
		{ErrInvalidEncryption, 6007, "InvalidEncryption"},
	}
	for _, tt := range want {
		if tt.err.Code != tt.code || tt.err.Name != tt.name {
			t.Errorf("%s: have code %d name %s, want %d %s", tt.name, tt.err.Code, tt.err.Name, tt.code, tt.name)
		}
		got, ok := LookupError(tt.code)
		if !ok || got != tt.err {
			t.Errorf("LookupError(%d) = %v, %v", tt.code, got, ok)
		}
		wrapped := fmt.Errorf("context: %w", tt.err)
		if !errors.Is(wrapped, tt.err) {
			t.Errorf("%s: errors.Is failed through wrapping", tt.name)
		}
		if code, ok := CodeOf(wrapped); !ok || code != tt.code {
			t.Errorf("CodeOf(%s) = %d, %v", tt.name, code, ok)
		}
	}
	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Fatal("plain error reported a taxonomy code")
	}
}

func TestMintRoundTrip(t *testing.T) {
	m := &Mint{
		Authority: common.Address{0xAA},
		Bump:      254,
	}
	for i := range m.CSPLConfig {
		m.CSPLConfig[i] = byte(i)
	}
	enc, err := m.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != params.MintRecordSize {
		t.Fatalf("mint encoding is %d bytes, want %d", len(enc), params.MintRecordSize)
	}
	if enc[96] != 254 {
		t.Fatalf("bump not at offset 96")
	}
	var dec Mint
	if err := dec.UnmarshalBinary(enc); err != nil {
		t.Fatal(err)
	}
	if dec != *m {
		t.Fatalf("mint mismatch: have %+v, want %+v", dec, *m)
	}
	if err := dec.UnmarshalBinary(enc[:96]); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("short mint: have %v, want %v", err, ErrInvalidRecord)
	}
}

func TestBalanceLayout(t *testing.T) {
	b := &ConfidentialBalance{
		OwnerCommitment: common.Hash{0x01},
		Nonce:           0x0102030405060708,
		Bump:            7,
	}
	b.EncryptedBalance[0] = 0xEE
	b.EncryptedBalance[63] = 0xFF
	enc, err := b.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != params.BalanceRecordSize {
		t.Fatalf("balance encoding is %d bytes, want %d", len(enc), params.BalanceRecordSize)
	}
	if enc[0] != 0x01 || enc[32] != 0xEE || enc[95] != 0xFF {
		t.Fatalf("field offsets wrong: %x", enc)
	}
	if !bytes.Equal(enc[96:104], []byte{8, 7, 6, 5, 4, 3, 2, 1}) {
		t.Fatalf("nonce is not little-endian: %x", enc[96:104])
	}
	if enc[104] != 7 {
		t.Fatalf("bump not at offset 104")
	}
	var dec ConfidentialBalance
	if err := dec.UnmarshalBinary(enc); err != nil {
		t.Fatal(err)
	}
	if dec != *b {
		t.Fatalf("balance mismatch: have %+v, want %+v", dec, *b)
	}
	cpy := b.Copy()
	cpy.Nonce++
	if b.Nonce == cpy.Nonce {
		t.Fatal("copy aliases the original")
	}
}

func TestEventLayouts(t *testing.T) {
	initEv := &BalanceInitializedEvent{OwnerCommitment: common.Hash{0x11}, Slot: 9, UnixSeconds: 1_700_000_000}
	enc, _ := initEv.MarshalBinary()
	if len(enc) != params.BalanceInitializedEventSize {
		t.Fatalf("init event is %d bytes", len(enc))
	}
	ev, err := DecodeEvent(initEv.Kind(), enc)
	if err != nil {
		t.Fatal(err)
	}
	if *ev.(*BalanceInitializedEvent) != *initEv {
		t.Fatalf("init event mismatch")
	}

	xfer := &PrivateTransferEvent{
		CommitmentHash: common.Hash{0x22},
		EncryptedTag:   common.Hash{0x33},
		Slot:           10,
		UnixSeconds:    -5,
		EventType:      params.EventTypeTransfer,
		SenderBump:     253,
	}
	enc, _ = xfer.MarshalBinary()
	if len(enc) != params.PrivateTransferEventSize {
		t.Fatalf("transfer event is %d bytes", len(enc))
	}
	if enc[0] != 0x22 || enc[32] != 0x33 || enc[64] != 10 || enc[80] != 0 || enc[81] != 253 {
		t.Fatalf("transfer event offsets wrong: %x", enc)
	}
	ev, err = DecodeEvent(xfer.Kind(), enc)
	if err != nil {
		t.Fatal(err)
	}
	if *ev.(*PrivateTransferEvent) != *xfer {
		t.Fatalf("transfer event mismatch")
	}
	if _, err := DecodeEvent(EventKind(9), enc); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("unknown kind: have %v", err)
	}
	if _, err := DecodeEvent(EventKindPrivateTransfer, enc[:81]); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("short event: have %v", err)
	}
}

func TestCiphertextText(t *testing.T) {
	var ct Ciphertext
	ct[0], ct[63] = 0xAB, 0xCD
	text, err := ct.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var dec Ciphertext
	if err := dec.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if dec != ct {
		t.Fatalf("text round trip mismatch")
	}
	if !bytes.Equal(dec.C1(), ct[:32]) || !bytes.Equal(dec.C2(), ct[32:]) {
		t.Fatal("C1/C2 split wrong")
	}
	if !(Ciphertext{}).IsZero() || ct.IsZero() {
		t.Fatal("IsZero wrong")
	}
	if err := dec.UnmarshalText([]byte("0x1234")); err == nil {
		t.Fatal("short ciphertext accepted")
	}
}

func TestEnvelope(t *testing.T) {
	p := PrivateTransferPayload{
		SenderBalance:   common.Address{0x01},
		ReceiverBalance: common.Address{0x02},
		TransferArgs: TransferArgs{
			ExpectedNonce:  42,
			CommitmentHash: common.Hash{0x03},
			EncryptedTag:   common.Hash{0x04},
		},
	}
	p.EncryptedAmount[5] = 0x55
	data := NewPrivateTransfer(p)

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.Action != ActionPrivateTransfer || ActionName(env.Action) != "private_transfer" {
		t.Fatalf("action = %d", env.Action)
	}
	dec, err := DecodePrivateTransferPayload(env.Body)
	if err != nil {
		t.Fatal(err)
	}
	if dec != p {
		t.Fatalf("payload mismatch: have %+v, want %+v", dec, p)
	}

	bad := append([]byte(params.InstructionPrefix), 0x7F)
	if _, err := DecodeEnvelope(bad); !errors.Is(err, ErrInvalidTransactionType) {
		t.Fatalf("unknown action: have %v, want %v", err, ErrInvalidTransactionType)
	}
	if _, err := DecodeEnvelope([]byte("garbage!!")); !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("bad prefix: have %v", err)
	}
	if _, err := EncodeEnvelope(0, nil); !errors.Is(err, ErrInvalidTransactionType) {
		t.Fatalf("encode unknown action: have %v", err)
	}
	if _, err := DecodePrivateTransferPayload(env.Body[:10]); !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("short body: have %v", err)
	}

	var cfg CSPLConfig
	cfg[0] = 9
	env, err = DecodeEnvelope(NewInitializeMint(cfg))
	if err != nil {
		t.Fatal(err)
	}
	mp, err := DecodeInitializeMintPayload(env.Body)
	if err != nil || mp.CSPLConfig != cfg {
		t.Fatalf("mint payload: %v %x", err, mp.CSPLConfig)
	}
	env, err = DecodeEnvelope(NewInitBalance())
	if err != nil || env.Action != ActionInitBalance || len(env.Body) != 0 {
		t.Fatalf("init balance envelope: %+v %v", env, err)
	}
}

func TestSignedInstruction(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)

	tx := SignInstruction(NewInitBalance(), priv)
	if err := tx.Verify(); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	h := tx.Hash()

	forged := *tx
	forged.Signer = common.Address{0xBB}
	if err := forged.Verify(); !errors.Is(err, ErrUnauthorizedSender) {
		t.Fatalf("forged signer: have %v, want %v", err, ErrUnauthorizedSender)
	}
	tampered := *tx
	tampered.Data = NewInitializeMint(CSPLConfig{})
	if err := tampered.Verify(); !errors.Is(err, ErrUnauthorizedSender) {
		t.Fatalf("tampered data: have %v, want %v", err, ErrUnauthorizedSender)
	}
	if tampered.Hash() == h {
		t.Fatal("hash ignores data")
	}
}

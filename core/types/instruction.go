package types

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/crypto"
	"github.com/tos-network/veilpay/params"
)

// Instruction action identifiers.
const (
	ActionInitializeMint  uint8 = 0x01
	ActionInitBalance     uint8 = 0x02
	ActionPrivateTransfer uint8 = 0x03
)

const privateTransferBodySize = 32 + 32 + params.CiphertextSize + 8 + 32 + 32

// ActionName returns the entry point name of an action.
func ActionName(action uint8) string {
	switch action {
	case ActionInitializeMint:
		return "initialize_mint"
	case ActionInitBalance:
		return "init_balance"
	case ActionPrivateTransfer:
		return "private_transfer"
	default:
		return "unknown"
	}
}

// Envelope is a decoded instruction: the action and its raw body.
type Envelope struct {
	Action uint8
	Body   []byte
}

// TransferArgs are the caller-supplied arguments of a private transfer.
type TransferArgs struct {
	EncryptedAmount Ciphertext
	ExpectedNonce   uint64
	CommitmentHash  common.Hash
	EncryptedTag    common.Hash
}

// InitializeMintPayload is the body of ActionInitializeMint.
type InitializeMintPayload struct {
	CSPLConfig CSPLConfig
}

// PrivateTransferPayload is the body of ActionPrivateTransfer.
//
// Layout (200 bytes):
//
//	[0:32]    sender balance address
//	[32:64]   receiver balance address
//	[64:128]  encrypted amount
//	[128:136] expected nonce, little-endian
//	[136:168] commitment hash
//	[168:200] encrypted tag
type PrivateTransferPayload struct {
	SenderBalance   common.Address
	ReceiverBalance common.Address
	TransferArgs
}

func validateAction(action uint8) error {
	switch action {
	case ActionInitializeMint, ActionInitBalance, ActionPrivateTransfer:
		return nil
	default:
		return ErrInvalidTransactionType
	}
}

// EncodeEnvelope frames body as an instruction of the given action.
func EncodeEnvelope(action uint8, body []byte) ([]byte, error) {
	if err := validateAction(action); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(params.InstructionPrefix)+1+len(body))
	out = append(out, params.InstructionPrefix...)
	out = append(out, action)
	out = append(out, body...)
	return out, nil
}

// DecodeEnvelope splits instruction bytes into action and body.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) <= len(params.InstructionPrefix) || !bytes.Equal(data[:len(params.InstructionPrefix)], []byte(params.InstructionPrefix)) {
		return Envelope{}, ErrInvalidInstruction
	}
	action := data[len(params.InstructionPrefix)]
	if err := validateAction(action); err != nil {
		return Envelope{}, err
	}
	return Envelope{Action: action, Body: common.CopyBytes(data[len(params.InstructionPrefix)+1:])}, nil
}

func EncodeInitializeMintPayload(p InitializeMintPayload) []byte {
	return common.CopyBytes(p.CSPLConfig[:])
}

func DecodeInitializeMintPayload(body []byte) (InitializeMintPayload, error) {
	var p InitializeMintPayload
	if len(body) != params.CSPLConfigSize {
		return p, ErrInvalidInstruction
	}
	copy(p.CSPLConfig[:], body)
	return p, nil
}

func EncodePrivateTransferPayload(p PrivateTransferPayload) []byte {
	out := make([]byte, privateTransferBodySize)
	copy(out[0:32], p.SenderBalance[:])
	copy(out[32:64], p.ReceiverBalance[:])
	copy(out[64:128], p.EncryptedAmount[:])
	binary.LittleEndian.PutUint64(out[128:136], p.ExpectedNonce)
	copy(out[136:168], p.CommitmentHash[:])
	copy(out[168:200], p.EncryptedTag[:])
	return out
}

func DecodePrivateTransferPayload(body []byte) (PrivateTransferPayload, error) {
	var p PrivateTransferPayload
	if len(body) != privateTransferBodySize {
		return p, ErrInvalidInstruction
	}
	copy(p.SenderBalance[:], body[0:32])
	copy(p.ReceiverBalance[:], body[32:64])
	copy(p.EncryptedAmount[:], body[64:128])
	p.ExpectedNonce = binary.LittleEndian.Uint64(body[128:136])
	copy(p.CommitmentHash[:], body[136:168])
	copy(p.EncryptedTag[:], body[168:200])
	return p, nil
}

// NewInitializeMint builds the instruction bytes of initialize_mint.
func NewInitializeMint(config CSPLConfig) []byte {
	data, _ := EncodeEnvelope(ActionInitializeMint, EncodeInitializeMintPayload(InitializeMintPayload{CSPLConfig: config}))
	return data
}

// NewInitBalance builds the instruction bytes of init_balance.
func NewInitBalance() []byte {
	data, _ := EncodeEnvelope(ActionInitBalance, nil)
	return data
}

// NewPrivateTransfer builds the instruction bytes of private_transfer.
func NewPrivateTransfer(p PrivateTransferPayload) []byte {
	data, _ := EncodeEnvelope(ActionPrivateTransfer, EncodePrivateTransferPayload(p))
	return data
}

// SignedInstruction is instruction data authenticated by its signer.
type SignedInstruction struct {
	Signer    common.Address
	Signature [crypto.SignatureLength]byte
	Data      []byte
}

// SigningHash is the digest an instruction signer signs.
func SigningHash(data []byte) common.Hash {
	return crypto.Keccak256Hash([]byte(params.InstructionSigningDomain), params.ProgramID[:], data)
}

// SignInstruction signs data with priv.
func SignInstruction(data []byte, priv ed25519.PrivateKey) *SignedInstruction {
	tx := &SignedInstruction{
		Signer: crypto.PubkeyToAddress(priv),
		Data:   common.CopyBytes(data),
	}
	digest := SigningHash(data)
	copy(tx.Signature[:], crypto.Sign(digest[:], priv))
	return tx
}

// Verify checks the signature against the claimed signer.
func (tx *SignedInstruction) Verify() error {
	digest := SigningHash(tx.Data)
	if !crypto.VerifySignature(tx.Signer, digest[:], tx.Signature[:]) {
		return ErrUnauthorizedSender
	}
	return nil
}

// Hash identifies the signed instruction.
func (tx *SignedInstruction) Hash() common.Hash {
	return crypto.Keccak256Hash(tx.Signer[:], tx.Signature[:], tx.Data)
}

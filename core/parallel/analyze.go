package parallel

import (
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
)

// AddressResolver derives the record addresses an instruction touches.
type AddressResolver interface {
	MintAddress(authority common.Address) (common.Address, error)
	BalanceAddress(owner common.Address) (common.Address, error)
}

// AnalyzeInstruction returns the static access set of a signed instruction.
// Instructions that cannot be decoded or resolved touch no records; they are
// rejected during execution without writing anything.
func AnalyzeInstruction(tx *types.SignedInstruction, resolver AddressResolver) AccessSet {
	as := NewAccessSet()
	env, err := types.DecodeEnvelope(tx.Data)
	if err != nil {
		return as
	}
	switch env.Action {
	case types.ActionInitializeMint:
		if addr, err := resolver.MintAddress(tx.Signer); err == nil {
			as.AddWrite(addr)
		}
	case types.ActionInitBalance:
		if addr, err := resolver.BalanceAddress(tx.Signer); err == nil {
			as.AddWrite(addr)
		}
	case types.ActionPrivateTransfer:
		payload, err := types.DecodePrivateTransferPayload(env.Body)
		if err != nil {
			return as
		}
		as.AddWrite(payload.SenderBalance)
		as.AddWrite(payload.ReceiverBalance)
	}
	return as
}

package params

import (
	"time"

	"github.com/tos-network/veilpay/common"
)

// ProgramID is the identity every record address is derived under.
var ProgramID = common.HexToAddress("0x5678ccc0195ce18570a4e65690147560200bd0d5194375001652913df03c4553")

// Address derivation seeds.
const (
	MintSeed    = "mint"
	BalanceSeed = "balance"
)

// Fixed widths of the ciphertext and record layouts. Any change here is
// state-breaking.
const (
	CiphertextSize = 64 // C1 ‖ C2
	ElgamalC1Size  = 32
	ElgamalC2Size  = 32
	CSPLConfigSize = 64

	MintRecordSize    = 32 + CSPLConfigSize + 1     // authority + cspl_config + bump
	BalanceRecordSize = 32 + CiphertextSize + 8 + 1 // owner_commitment + encrypted_balance + nonce + bump

	BalanceInitializedEventSize = 32 + 8 + 8
	PrivateTransferEventSize    = 32 + 32 + 8 + 8 + 1 + 1
)

// Event type identifiers carried by PrivateTransferEvent.
const (
	EventTypeTransfer uint8 = 0
	EventTypeMint     uint8 = 1
	EventTypeBurn     uint8 = 2
	EventTypeDeposit  uint8 = 3
)

// Instruction wire constants.
const (
	InstructionPrefix        = "VEILPAY1"
	InstructionSigningDomain = "veilpay-instruction-v1"

	// ErrorCodeOffset is the first numeric code of the ledger error taxonomy.
	ErrorCodeOffset = 6000
)

// Substrate defaults.
const (
	DefaultSlotDuration = 400 * time.Millisecond
	DefaultMaxBatchSize = 1024
)

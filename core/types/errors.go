package types

import (
	"errors"

	"github.com/tos-network/veilpay/params"
)

// ErrorCode is the stable numeric identifier of a ledger error.
type ErrorCode uint32

// Error is a member of the closed ledger error taxonomy. Values are
// singletons, so errors.Is works on wrapped instances.
type Error struct {
	Code ErrorCode
	Name string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Numeric codes of the taxonomy. The order is frozen.
const (
	CodeUnauthorizedSender ErrorCode = params.ErrorCodeOffset + iota
	CodeInsufficientBalance
	CodeUnauthorizedAccess
	CodeTransactionLimitExceeded
	CodeAccountNotFound
	CodeInvalidTransactionType
	CodeInvalidNonce
	CodeInvalidEncryption
)

var errorsByCode = make(map[ErrorCode]*Error)

func newError(code ErrorCode, name, msg string) *Error {
	e := &Error{Code: code, Name: name, msg: msg}
	errorsByCode[code] = e
	return e
}

var (
	// ErrUnauthorizedSender is returned when an instruction is not signed by
	// the identity it claims.
	ErrUnauthorizedSender = newError(CodeUnauthorizedSender, "UnauthorizedSender", "unauthorized sender for this operation")

	// ErrInsufficientBalance is returned when the ciphertext range check fails.
	ErrInsufficientBalance = newError(CodeInsufficientBalance, "InsufficientBalance", "insufficient balance for the transaction")

	// ErrUnauthorizedAccess is returned when the signer's commitment does not
	// match the balance it spends from.
	ErrUnauthorizedAccess = newError(CodeUnauthorizedAccess, "UnauthorizedAccess", "unauthorized access to the account")

	// ErrTransactionLimitExceeded is returned by policy layers above the core.
	ErrTransactionLimitExceeded = newError(CodeTransactionLimitExceeded, "TransactionLimitExceeded", "transaction amount exceeds the limit")

	// ErrAccountNotFound is returned when a referenced record does not exist.
	ErrAccountNotFound = newError(CodeAccountNotFound, "AccountNotFound", "account not found")

	// ErrInvalidTransactionType is returned for unknown instruction actions.
	ErrInvalidTransactionType = newError(CodeInvalidTransactionType, "InvalidTransactionType", "invalid transaction type")

	// ErrInvalidNonce is returned when the expected nonce differs from the
	// stored one (replay or stale client state).
	ErrInvalidNonce = newError(CodeInvalidNonce, "InvalidNonce", "invalid nonce (replay detected)")

	// ErrInvalidEncryption is returned when a ciphertext fails its integrity
	// self-check.
	ErrInvalidEncryption = newError(CodeInvalidEncryption, "InvalidEncryption", "invalid encryption format")
)

// LookupError returns the taxonomy member with the given code.
func LookupError(code ErrorCode) (*Error, bool) {
	e, ok := errorsByCode[code]
	return e, ok
}

// CodeOf extracts the taxonomy code from err, if err wraps a ledger error.
func CodeOf(err error) (ErrorCode, bool) {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Code, true
	}
	return 0, false
}

var (
	// ErrInvalidRecord indicates record bytes of the wrong length.
	ErrInvalidRecord = errors.New("types: invalid record encoding")

	// ErrInvalidEvent indicates malformed event bytes or an unknown kind.
	ErrInvalidEvent = errors.New("types: invalid event encoding")

	// ErrInvalidInstruction indicates malformed instruction bytes.
	ErrInvalidInstruction = errors.New("types: invalid instruction")
)

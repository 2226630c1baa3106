package types

import (
	"encoding/binary"
	"fmt"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/params"
)

// EventKind discriminates the event records in the ledger log.
type EventKind uint8

const (
	EventKindBalanceInitialized EventKind = 0x01
	EventKindPrivateTransfer    EventKind = 0x02
)

func (k EventKind) String() string {
	switch k {
	case EventKindBalanceInitialized:
		return "BalanceInitialized"
	case EventKindPrivateTransfer:
		return "PrivateTransfer"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is an append-only fact published to the ledger log. Its binary form
// is the fixed-length concatenation of its fields in declaration order.
type Event interface {
	Kind() EventKind
	MarshalBinary() ([]byte, error)
}

// IndexedEvent is an event together with its position in the ledger log.
type IndexedEvent struct {
	Index uint64
	Event Event
}

// BalanceInitializedEvent is emitted when a confidential balance is created.
//
// Layout (48 bytes):
//
//	[0:32]  owner_commitment
//	[32:40] slot, little-endian
//	[40:48] unix_seconds, little-endian
type BalanceInitializedEvent struct {
	OwnerCommitment common.Hash
	Slot            uint64
	UnixSeconds     int64
}

func (e *BalanceInitializedEvent) Kind() EventKind { return EventKindBalanceInitialized }

func (e *BalanceInitializedEvent) MarshalBinary() ([]byte, error) {
	out := make([]byte, params.BalanceInitializedEventSize)
	copy(out[0:32], e.OwnerCommitment[:])
	binary.LittleEndian.PutUint64(out[32:40], e.Slot)
	binary.LittleEndian.PutUint64(out[40:48], uint64(e.UnixSeconds))
	return out, nil
}

func (e *BalanceInitializedEvent) UnmarshalBinary(data []byte) error {
	if len(data) != params.BalanceInitializedEventSize {
		return fmt.Errorf("%w: balance initialized event is %d bytes", ErrInvalidEvent, len(data))
	}
	copy(e.OwnerCommitment[:], data[0:32])
	e.Slot = binary.LittleEndian.Uint64(data[32:40])
	e.UnixSeconds = int64(binary.LittleEndian.Uint64(data[40:48]))
	return nil
}

// PrivateTransferEvent is the privacy-preserving audit record of a transfer.
// It carries no amount, identity or balance bytes.
//
// Layout (82 bytes):
//
//	[0:32]  commitment_hash
//	[32:64] encrypted_tag
//	[64:72] slot, little-endian
//	[72:80] unix_seconds, little-endian
//	[80]    event_type
//	[81]    sender_bump
type PrivateTransferEvent struct {
	CommitmentHash common.Hash
	EncryptedTag   common.Hash
	Slot           uint64
	UnixSeconds    int64
	EventType      uint8
	SenderBump     uint8
}

func (e *PrivateTransferEvent) Kind() EventKind { return EventKindPrivateTransfer }

func (e *PrivateTransferEvent) MarshalBinary() ([]byte, error) {
	out := make([]byte, params.PrivateTransferEventSize)
	copy(out[0:32], e.CommitmentHash[:])
	copy(out[32:64], e.EncryptedTag[:])
	binary.LittleEndian.PutUint64(out[64:72], e.Slot)
	binary.LittleEndian.PutUint64(out[72:80], uint64(e.UnixSeconds))
	out[80] = e.EventType
	out[81] = e.SenderBump
	return out, nil
}

func (e *PrivateTransferEvent) UnmarshalBinary(data []byte) error {
	if len(data) != params.PrivateTransferEventSize {
		return fmt.Errorf("%w: private transfer event is %d bytes", ErrInvalidEvent, len(data))
	}
	copy(e.CommitmentHash[:], data[0:32])
	copy(e.EncryptedTag[:], data[32:64])
	e.Slot = binary.LittleEndian.Uint64(data[64:72])
	e.UnixSeconds = int64(binary.LittleEndian.Uint64(data[72:80]))
	e.EventType = data[80]
	e.SenderBump = data[81]
	return nil
}

// DecodeEvent decodes the binary form of an event of the given kind.
func DecodeEvent(kind EventKind, data []byte) (Event, error) {
	switch kind {
	case EventKindBalanceInitialized:
		ev := new(BalanceInitializedEvent)
		if err := ev.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return ev, nil
	case EventKindPrivateTransfer:
		ev := new(PrivateTransferEvent)
		if err := ev.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidEvent, kind)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tos-network/veilpay/cmd/utils"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/ledger"
)

// mustPrintJSON prints the JSON encoding of the given object and
// exits the program with an error message when the marshaling fails.
func mustPrintJSON(w io.Writer, jsonObject interface{}) {
	str, err := json.MarshalIndent(jsonObject, "", "  ")
	if err != nil {
		utils.Fatalf("Failed to marshal JSON object: %v", err)
	}
	fmt.Fprintln(w, string(str))
}

func parseAddress(s, what string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", what, s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s, what string) (common.Hash, error) {
	var h common.Hash
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return h, fmt.Errorf("invalid %s %q: %v", what, s, err)
	}
	return h, nil
}

func parseCiphertext(s string) (types.Ciphertext, error) {
	var ct types.Ciphertext
	if err := ct.UnmarshalText([]byte(s)); err != nil {
		return ct, fmt.Errorf("invalid ciphertext: %v", err)
	}
	return ct, nil
}

func parseUint64(s, what string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

type outputReceipt struct {
	TxHash string          `json:"txHash"`
	Action string          `json:"action"`
	Signer string          `json:"signer"`
	Record string          `json:"record"`
	Events []outputEvent   `json:"events,omitempty"`
	Error  *outputRejected `json:"error,omitempty"`
}

type outputRejected struct {
	Code    uint32 `json:"code,omitempty"`
	Message string `json:"message"`
}

func newOutputReceipt(r *ledger.Receipt) outputReceipt {
	out := outputReceipt{
		TxHash: r.TxHash.Hex(),
		Action: types.ActionName(r.Action),
		Signer: r.Signer.Hex(),
		Record: r.Record.Hex(),
	}
	for _, ev := range r.Events {
		out.Events = append(out.Events, newOutputEvent(ev))
	}
	if r.Err != nil {
		out.Error = &outputRejected{Message: r.Err.Error()}
		if code, ok := types.CodeOf(r.Err); ok {
			out.Error.Code = uint32(code)
		}
	}
	return out
}

// printReceipt renders an instruction outcome and converts a rejection into
// the command error.
func printReceipt(w io.Writer, asJSON bool, r *ledger.Receipt) error {
	out := newOutputReceipt(r)
	if asJSON {
		mustPrintJSON(w, out)
	} else {
		fmt.Fprintln(w, "Instruction:   ", out.TxHash)
		fmt.Fprintln(w, "Action:        ", out.Action)
		fmt.Fprintln(w, "Signer:        ", out.Signer)
		fmt.Fprintln(w, "Record:        ", out.Record)
		for _, ev := range out.Events {
			fmt.Fprintf(w, "Event #%d:       %s slot=%d\n", ev.Index, ev.Kind, ev.Slot)
		}
	}
	if r.Err != nil {
		return fmt.Errorf("instruction rejected: %w", r.Err)
	}
	return nil
}

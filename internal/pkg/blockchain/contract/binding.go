// Package contract wraps deployed contracts with their ABI so that calls can
// be encoded and results and logs decoded by method or event name.
package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/keeper/internal/pkg/blockchain/abis"
)

// Kind selects the ABI of a binding.
type Kind string

const (
	KindRouter  Kind = "router"
	KindOptions Kind = "options"
	KindPyth    Kind = "pyth"
)

func loadABI(kind Kind) (*abi.ABI, error) {
	switch kind {
	case KindRouter:
		return abis.GetRouterABI()
	case KindOptions:
		return abis.GetOptionsABI()
	case KindPyth:
		return abis.GetPythABI()
	default:
		return nil, fmt.Errorf("unknown contract kind %q", kind)
	}
}

// Binding is a contract address plus its ABI. The topic to event table is
// built once at construction.
type Binding struct {
	Address common.Address
	Kind    Kind
	abi     *abi.ABI
	events  map[common.Hash]abi.Event
}

func newBinding(address common.Address, kind Kind, parsed *abi.ABI) *Binding {
	events := make(map[common.Hash]abi.Event, len(parsed.Events))
	for _, ev := range parsed.Events {
		events[ev.ID] = ev
	}
	return &Binding{
		Address: address,
		Kind:    kind,
		abi:     parsed,
		events:  events,
	}
}

// Pack encodes a call to method.
func (b *Binding) Pack(method string, args ...any) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s.%s: %w", b.Kind, method, err)
	}
	return data, nil
}

// Unpack decodes the return data of method.
func (b *Binding) Unpack(method string, data []byte) ([]any, error) {
	out, err := b.abi.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s.%s: %w", b.Kind, method, err)
	}
	return out, nil
}

// Event is a decoded contract log.
type Event struct {
	Name     string
	Contract common.Address
	TxHash   common.Hash
	Fields   map[string]any
}

// DecodeLog decodes a log emitted by this contract. ok is false when the
// topic is not one of the binding's events.
func (b *Binding) DecodeLog(log types.Log) (ev Event, ok bool, err error) {
	if len(log.Topics) == 0 {
		return Event{}, false, nil
	}
	abiEvent, found := b.events[log.Topics[0]]
	if !found {
		return Event{}, false, nil
	}

	fields := make(map[string]any)
	if len(log.Data) > 0 {
		if err := abiEvent.Inputs.NonIndexed().UnpackIntoMap(fields, log.Data); err != nil {
			return Event{}, true, fmt.Errorf("decoding %s data: %w", abiEvent.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range abiEvent.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return Event{}, true, fmt.Errorf("decoding %s topics: %w", abiEvent.Name, err)
		}
	}

	return Event{
		Name:     abiEvent.Name,
		Contract: log.Address,
		TxHash:   log.TxHash,
		Fields:   fields,
	}, true, nil
}

package contract

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type registryKey struct {
	environment string
	address     common.Address
}

// Registry holds one Binding per (environment, address). Bindings are created
// on first use and live for the process lifetime.
type Registry struct {
	environment string
	logger      *slog.Logger

	mu       sync.RWMutex
	abis     map[Kind]*abi.ABI
	bindings map[registryKey]*Binding
}

// NewRegistry creates an empty registry for one deployment environment.
func NewRegistry(environment string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		environment: environment,
		logger:      logger.With("component", "contract-registry"),
		abis:        make(map[Kind]*abi.ABI),
		bindings:    make(map[registryKey]*Binding),
	}
}

// Environment returns the deployment environment the registry serves.
func (r *Registry) Environment() string {
	return r.environment
}

// Get returns the binding for address, creating it with kind on first use.
// Asking for an existing address with a different kind is an error.
func (r *Registry) Get(address common.Address, kind Kind) (*Binding, error) {
	key := registryKey{environment: r.environment, address: address}

	r.mu.RLock()
	b, ok := r.bindings[key]
	r.mu.RUnlock()
	if ok {
		if b.Kind != kind {
			return nil, fmt.Errorf("contract %s already bound as %s, not %s", address.Hex(), b.Kind, kind)
		}
		return b, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bindings[key]; ok {
		if b.Kind != kind {
			return nil, fmt.Errorf("contract %s already bound as %s, not %s", address.Hex(), b.Kind, kind)
		}
		return b, nil
	}

	parsed, ok := r.abis[kind]
	if !ok {
		var err error
		parsed, err = loadABI(kind)
		if err != nil {
			return nil, err
		}
		r.abis[kind] = parsed
	}

	b = newBinding(address, kind, parsed)
	r.bindings[key] = b
	r.logger.Debug("contract bound", "address", address.Hex(), "kind", kind)
	return b, nil
}

// Lookup returns an existing binding without creating one.
func (r *Registry) Lookup(address common.Address) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[registryKey{environment: r.environment, address: address}]
	return b, ok
}

// DecodeLogs decodes every log emitted by a bound contract. Logs from
// unknown contracts or with unknown topics are skipped.
func (r *Registry) DecodeLogs(logs []*types.Log) []Event {
	var events []Event
	for _, log := range logs {
		if log == nil {
			continue
		}
		b, ok := r.Lookup(log.Address)
		if !ok {
			continue
		}
		ev, matched, err := b.DecodeLog(*log)
		if err != nil {
			r.logger.Warn("failed to decode log", "address", log.Address.Hex(), "error", err)
			continue
		}
		if matched {
			events = append(events, ev)
		}
	}
	return events
}

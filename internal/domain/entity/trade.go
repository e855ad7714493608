package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PendingTrade is a trade waiting in the router queue to be opened at the
// price observed at QueueTimestamp.
type PendingTrade struct {
	QueueID         uint64
	ContractAddress common.Address
	IsAboveStrike   bool
	QueueTimestamp  int64
}

// NewPendingTrade creates a new PendingTrade entity.
func NewPendingTrade(queueID uint64, contract common.Address, isAbove bool, queueTimestamp int64) (*PendingTrade, error) {
	p := &PendingTrade{
		QueueID:         queueID,
		ContractAddress: contract,
		IsAboveStrike:   isAbove,
		QueueTimestamp:  queueTimestamp,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PendingTrade) validate() error {
	if p.ContractAddress == (common.Address{}) {
		return fmt.Errorf("contractAddress must not be zero")
	}
	if p.QueueTimestamp <= 0 {
		return fmt.Errorf("queueTimestamp must be positive, got %d", p.QueueTimestamp)
	}
	return nil
}

// ItemID identifies the trade inside a settlement batch.
func (p *PendingTrade) ItemID() string {
	return fmt.Sprintf("%d", p.QueueID)
}

// ExpiredOption is an open option whose expiration time has passed and that
// must be unlocked at the price observed at ExpirationTime.
type ExpiredOption struct {
	OptionID        uint64
	QueueID         uint64
	ContractAddress common.Address
	ExpirationTime  int64
}

// NewExpiredOption creates a new ExpiredOption entity.
func NewExpiredOption(optionID, queueID uint64, contract common.Address, expirationTime int64) (*ExpiredOption, error) {
	o := &ExpiredOption{
		OptionID:        optionID,
		QueueID:         queueID,
		ContractAddress: contract,
		ExpirationTime:  expirationTime,
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *ExpiredOption) validate() error {
	if o.ContractAddress == (common.Address{}) {
		return fmt.Errorf("contractAddress must not be zero")
	}
	if o.ExpirationTime <= 0 {
		return fmt.Errorf("expirationTime must be positive, got %d", o.ExpirationTime)
	}
	return nil
}

// ItemID identifies the option inside a settlement batch. Option ids are only
// unique per option contract.
func (o *ExpiredOption) ItemID() string {
	return fmt.Sprintf("%d-%s", o.OptionID, o.ContractAddress.Hex())
}

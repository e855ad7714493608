package entity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultMaxBatchSize caps the number of items in one settlement transaction.
const DefaultMaxBatchSize = 100

// ErrBatchFull is returned when adding a new item to a batch at capacity.
var ErrBatchFull = errors.New("settlement batch is full")

// SettlementItem is one entry of a settlement transaction.
type SettlementItem struct {
	// ID is unique per batch: the queue id for trades, optionId-contract for options.
	ID       string
	EntityID uint64
	Contract common.Address
	Key      AssetTimeKey
	Quote    PriceQuote
	FeedID   common.Hash
	Fee      *big.Int
}

func (i SettlementItem) validate() error {
	if i.ID == "" {
		return fmt.Errorf("item id must not be empty")
	}
	if len(i.Quote.Signature) == 0 {
		return fmt.Errorf("item %s: signature must not be empty", i.ID)
	}
	if i.Quote.Price.Sign() <= 0 {
		return fmt.Errorf("item %s: price must be positive", i.ID)
	}
	if i.Fee == nil || i.Fee.Sign() < 0 {
		return fmt.Errorf("item %s: fee must be non-negative", i.ID)
	}
	return nil
}

// SettlementBatch is an ordered set of items with unique ids, bounded by a cap.
type SettlementBatch struct {
	items []SettlementItem
	index map[string]int
	cap   int
}

// NewSettlementBatch creates an empty batch. A non-positive maxSize uses DefaultMaxBatchSize.
func NewSettlementBatch(maxSize int) *SettlementBatch {
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	return &SettlementBatch{
		index: make(map[string]int),
		cap:   maxSize,
	}
}

// Add appends the item, or replaces an existing item with the same id in place.
// It returns replaced=true when a previous item was overwritten.
func (b *SettlementBatch) Add(item SettlementItem) (replaced bool, err error) {
	if err := item.validate(); err != nil {
		return false, err
	}
	if i, ok := b.index[item.ID]; ok {
		b.items[i] = item
		return true, nil
	}
	if len(b.items) >= b.cap {
		return false, ErrBatchFull
	}
	b.index[item.ID] = len(b.items)
	b.items = append(b.items, item)
	return false, nil
}

// Items returns a copy of the batch items in insertion order.
func (b *SettlementBatch) Items() []SettlementItem {
	out := make([]SettlementItem, len(b.items))
	copy(out, b.items)
	return out
}

func (b *SettlementBatch) Len() int {
	return len(b.items)
}

func (b *SettlementBatch) IsEmpty() bool {
	return len(b.items) == 0
}

// TotalFee sums the oracle update fee over all items.
func (b *SettlementBatch) TotalFee() *big.Int {
	total := new(big.Int)
	for _, item := range b.items {
		total.Add(total, item.Fee)
	}
	return total
}

// IDs returns the item ids in batch order.
func (b *SettlementBatch) IDs() []string {
	ids := make([]string, len(b.items))
	for i, item := range b.items {
		ids[i] = item.ID
	}
	return ids
}

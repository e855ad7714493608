// Package feeds maps asset pairs to the oracle price feed ids expected by
// the settlement contracts.
package feeds

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// Table resolves feed ids by asset pair.
type Table struct {
	ids map[string]common.Hash
}

// NewTable returns the built-in Pyth table, extended or overridden by extra.
func NewTable(extra map[string]string) *Table {
	ids := make(map[string]common.Hash, len(pythFeedIDs)+len(extra))
	for pair, id := range pythFeedIDs {
		ids[pair] = common.HexToHash(id)
	}
	for pair, id := range extra {
		ids[entity.NormalizeAssetPair(pair)] = common.HexToHash(id)
	}
	return &Table{ids: ids}
}

// FeedID returns the feed for an asset pair such as "BTCUSD" or "BTC-USD".
func (t *Table) FeedID(pair string) (common.Hash, bool) {
	id, ok := t.ids[entity.NormalizeAssetPair(pair)]
	return id, ok
}

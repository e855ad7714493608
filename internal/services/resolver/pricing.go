package resolver

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/pkg/blockchain/multicall"
	"github.com/archon-research/keeper/internal/pkg/pipeline"
)

// candidate is an item confirmed pending on chain and waiting for a price.
type candidate struct {
	id        string
	entityID  uint64
	contract  common.Address
	timestamp int64
}

// priced is a candidate with its asset key and feed resolved.
type priced struct {
	candidate
	key    entity.AssetTimeKey
	feedID common.Hash
}

func (c *core) assetPairKey(addr common.Address) string {
	return fmt.Sprintf("%s-%s-asset_pair", addr.Hex(), c.config.Environment)
}

// assetPairs maps each option contract to its normalized asset symbol.
// Pairs never change, so they are cached without expiry; misses are read in
// one multicall. Contracts whose pair cannot be read are absent.
func (c *core) assetPairs(ctx context.Context, contracts []common.Address) (map[common.Address]string, error) {
	contracts = pipeline.DedupeFirst(contracts, func(a common.Address) common.Address { return a })
	pairs := make(map[common.Address]string, len(contracts))

	cached, err := c.deps.Cache.GetMany(ctx, pipeline.Map(contracts, c.assetPairKey))
	if err != nil {
		c.logger.Warn("asset pair cache read failed", "error", err)
		cached = nil
	}

	var misses []common.Address
	for _, addr := range contracts {
		if pair, ok := cached[c.assetPairKey(addr)]; ok && pair != "" {
			pairs[addr] = pair
			continue
		}
		misses = append(misses, addr)
	}
	if len(misses) == 0 {
		return pairs, nil
	}

	calls := make([]multicall.ReadCall, 0, len(misses))
	for _, addr := range misses {
		binding, err := c.deps.Registry.Get(addr, contract.KindOptions)
		if err != nil {
			c.logger.Warn("cannot bind option contract", "contract", addr.Hex(), "error", err)
		}
		calls = append(calls, multicall.ReadCall{Binding: binding, Method: "assetPair"})
	}
	results, err := c.deps.Reader.Read(ctx, calls)
	if err != nil {
		return nil, classify("reading asset pairs", err)
	}

	fresh := make(map[string]string, len(misses))
	for i, res := range results {
		if !res.OK() || len(res.Values) == 0 {
			continue
		}
		raw, ok := res.Values[0].(string)
		if !ok || raw == "" {
			continue
		}
		pair := entity.NormalizeAssetPair(raw)
		pairs[misses[i]] = pair
		fresh[c.assetPairKey(misses[i])] = pair
	}
	if len(fresh) > 0 {
		if err := c.deps.Cache.SetMany(ctx, fresh, 0); err != nil {
			c.logger.Warn("asset pair cache write failed", "error", err)
		}
	}
	return pairs, nil
}

// price resolves asset, feed, quote and fee for every candidate and returns
// the batch. Items that cannot be priced are dropped on the report.
func (c *core) price(ctx context.Context, report *entity.CycleReport, cands []candidate) (*entity.SettlementBatch, error) {
	batch := entity.NewSettlementBatch(c.config.MaxBatchSize)
	if len(cands) == 0 {
		return batch, nil
	}

	pairs, err := c.assetPairs(ctx, pipeline.Map(cands, func(cd candidate) common.Address { return cd.contract }))
	if err != nil {
		return nil, err
	}

	var items []priced
	for _, cd := range cands {
		pair, ok := pairs[cd.contract]
		if !ok {
			report.Drop(cd.id, entity.DropUnknownAsset)
			continue
		}
		feedID, ok := c.deps.Feeds.FeedID(pair)
		if !ok {
			c.logger.Warn("no price feed for asset", "asset", pair, "item", cd.id)
			report.Drop(cd.id, entity.DropUnknownFeed)
			continue
		}
		items = append(items, priced{candidate: cd, key: entity.NewAssetTimeKey(pair, cd.timestamp), feedID: feedID})
	}
	if len(items) == 0 {
		return batch, nil
	}

	keys := pipeline.DedupeFirst(
		pipeline.Map(items, func(p priced) entity.AssetTimeKey { return p.key }),
		func(k entity.AssetTimeKey) entity.AssetTimeKey { return k },
	)
	quotes, err := c.deps.Oracle.FetchPrices(ctx, keys)
	if err != nil {
		return nil, classify("fetching prices", err)
	}

	items = pipeline.Filter(items, func(p priced) bool {
		if _, ok := quotes[p.key]; ok {
			return true
		}
		report.Drop(p.id, entity.DropMissingPrice)
		return false
	})
	if len(items) == 0 {
		return batch, nil
	}

	fees, err := c.updateFees(ctx, pipeline.Filter(keys, func(k entity.AssetTimeKey) bool {
		_, ok := quotes[k]
		return ok
	}), quotes)
	if err != nil {
		return nil, err
	}

	for _, p := range items {
		fee, ok := fees[p.key]
		if !ok {
			report.Drop(p.id, entity.DropMissingFee)
			continue
		}
		_, err := batch.Add(entity.SettlementItem{
			ID:       p.id,
			EntityID: p.entityID,
			Contract: p.contract,
			Key:      p.key,
			Quote:    quotes[p.key],
			FeedID:   p.feedID,
			Fee:      fee,
		})
		if err != nil {
			report.Drop(p.id, entity.DropOverCap)
			continue
		}
		report.Keep(p.id)
	}
	return batch, nil
}

// updateFees reads the oracle fee for the exact update bytes of each key, so
// fee and price always describe the same attestation. Keys whose fee read
// fails are absent from the result.
func (c *core) updateFees(ctx context.Context, keys []entity.AssetTimeKey, quotes map[entity.AssetTimeKey]entity.PriceQuote) (map[entity.AssetTimeKey]*big.Int, error) {
	calls := pipeline.Map(keys, func(k entity.AssetTimeKey) multicall.ReadCall {
		return multicall.ReadCall{
			Binding: c.feed,
			Method:  "getUpdateFee",
			Args:    []any{[][]byte{quotes[k].Signature}},
		}
	})
	results, err := c.deps.Reader.Read(ctx, calls)
	if err != nil {
		return nil, classify("reading update fees", err)
	}

	fees := make(map[entity.AssetTimeKey]*big.Int, len(keys))
	for i, res := range results {
		var fee *big.Int
		if res.OK() && len(res.Values) > 0 {
			fee, _ = res.Values[0].(*big.Int)
		}
		if fee == nil {
			c.logger.Warn("update fee unavailable, dropping items priced at this key",
				"key", keys[i].String(), "error", res.Err)
			continue
		}
		fees[keys[i]] = fee
	}
	return fees, nil
}

func priceUpdate(item entity.SettlementItem) ([][]byte, [][32]byte) {
	return [][]byte{item.Quote.Signature}, [][32]byte{item.FeedID}
}

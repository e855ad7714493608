package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetRouterABI returns the settlement router: the trade queue, the batched
// resolve and unlock entry points, and the events they emit.
func GetRouterABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [{"name": "", "type": "uint256"}],
			"name": "queuedTrades",
			"outputs": [
				{"name": "queueId", "type": "uint256"},
				{"name": "userQueueIndex", "type": "uint256"},
				{"name": "user", "type": "address"},
				{"name": "totalFee", "type": "uint256"},
				{"name": "period", "type": "uint256"},
				{"name": "isAbove", "type": "bool"},
				{"name": "targetContract", "type": "address"},
				{"name": "expectedStrike", "type": "uint256"},
				{"name": "slippage", "type": "uint256"},
				{"name": "queuedTime", "type": "uint256"},
				{"name": "isQueued", "type": "bool"},
				{"name": "referralCode", "type": "string"},
				{"name": "traderNFTId", "type": "uint256"}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{
					"components": [
						{"name": "queueId", "type": "uint256"},
						{"name": "priceUpdateData", "type": "bytes[]"},
						{"name": "priceIds", "type": "bytes32[]"}
					],
					"name": "params",
					"type": "tuple[]"
				}
			],
			"name": "resolveQueuedTrades",
			"outputs": [],
			"stateMutability": "payable",
			"type": "function"
		},
		{
			"inputs": [
				{
					"components": [
						{"name": "optionId", "type": "uint256"},
						{"name": "targetContract", "type": "address"},
						{"name": "priceUpdateData", "type": "bytes[]"},
						{"name": "priceIds", "type": "bytes32[]"}
					],
					"name": "optionData",
					"type": "tuple[]"
				}
			],
			"name": "unlockOptions",
			"outputs": [],
			"stateMutability": "payable",
			"type": "function"
		},
		{
			"anonymous": false,
			"inputs": [
				{"indexed": true, "name": "account", "type": "address"},
				{"indexed": false, "name": "queueId", "type": "uint256"},
				{"indexed": false, "name": "optionId", "type": "uint256"}
			],
			"name": "OpenTrade",
			"type": "event"
		},
		{
			"anonymous": false,
			"inputs": [
				{"indexed": true, "name": "account", "type": "address"},
				{"indexed": false, "name": "queueId", "type": "uint256"},
				{"indexed": false, "name": "reason", "type": "string"}
			],
			"name": "CancelTrade",
			"type": "event"
		},
		{
			"anonymous": false,
			"inputs": [
				{"indexed": true, "name": "queueId", "type": "uint256"},
				{"indexed": false, "name": "reason", "type": "string"}
			],
			"name": "FailResolve",
			"type": "event"
		},
		{
			"anonymous": false,
			"inputs": [
				{"indexed": true, "name": "optionId", "type": "uint256"},
				{"indexed": false, "name": "targetContract", "type": "address"},
				{"indexed": false, "name": "reason", "type": "string"}
			],
			"name": "FailUnlock",
			"type": "event"
		}
	]`)
}

package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

// GetOptionsABI returns the option contract reads used by the keeper and
// the settlement events it emits.
func GetOptionsABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [{"name": "", "type": "uint256"}],
			"name": "options",
			"outputs": [
				{"name": "state", "type": "uint8"},
				{"name": "strike", "type": "uint256"},
				{"name": "amount", "type": "uint256"},
				{"name": "lockedAmount", "type": "uint256"},
				{"name": "premium", "type": "uint256"},
				{"name": "expiration", "type": "uint256"},
				{"name": "isAbove", "type": "bool"},
				{"name": "totalFee", "type": "uint256"},
				{"name": "createdAt", "type": "uint256"}
			],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "assetPair",
			"outputs": [{"name": "", "type": "string"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"anonymous": false,
			"inputs": [
				{"indexed": true, "name": "account", "type": "address"},
				{"indexed": true, "name": "id", "type": "uint256"},
				{"indexed": false, "name": "profit", "type": "uint256"},
				{"indexed": false, "name": "priceAtExpiration", "type": "uint256"},
				{"indexed": false, "name": "isAbove", "type": "bool"}
			],
			"name": "Exercise",
			"type": "event"
		},
		{
			"anonymous": false,
			"inputs": [
				{"indexed": true, "name": "id", "type": "uint256"},
				{"indexed": false, "name": "premium", "type": "uint256"},
				{"indexed": false, "name": "priceAtExpiration", "type": "uint256"},
				{"indexed": false, "name": "isAbove", "type": "bool"}
			],
			"name": "Expire",
			"type": "event"
		}
	]`)
}

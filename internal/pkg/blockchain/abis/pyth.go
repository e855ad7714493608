package abis

import "github.com/ethereum/go-ethereum/accounts/abi"

func GetPythABI() (*abi.ABI, error) {
	return ParseABI(`[
		{
			"inputs": [{"name": "updateData", "type": "bytes[]"}],
			"name": "getUpdateFee",
			"outputs": [{"name": "feeAmount", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
}

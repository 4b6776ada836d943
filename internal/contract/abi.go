package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// RegistryABI is the interface of the FHE gift registry contract. Encrypted
// inputs travel as bytes32 handles (externalEuint32) next to their input proof.
const RegistryABI = `[
	{
		"type": "function",
		"name": "getAllBusinessIds",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "string[]"}]
	},
	{
		"type": "function",
		"name": "getBusinessData",
		"stateMutability": "view",
		"inputs": [{"name": "businessId", "type": "string"}],
		"outputs": [
			{"name": "name", "type": "string"},
			{"name": "publicValue1", "type": "uint256"},
			{"name": "publicValue2", "type": "uint256"},
			{"name": "description", "type": "string"},
			{"name": "creator", "type": "address"},
			{"name": "timestamp", "type": "uint256"},
			{"name": "decryptedValue", "type": "uint32"},
			{"name": "isVerified", "type": "bool"}
		]
	},
	{
		"type": "function",
		"name": "getEncryptedValue",
		"stateMutability": "view",
		"inputs": [{"name": "businessId", "type": "string"}],
		"outputs": [{"name": "", "type": "bytes32"}]
	},
	{
		"type": "function",
		"name": "isAvailable",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "createBusinessData",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "businessId", "type": "string"},
			{"name": "name", "type": "string"},
			{"name": "encryptedValue", "type": "bytes32"},
			{"name": "inputProof", "type": "bytes"},
			{"name": "publicValue1", "type": "uint256"},
			{"name": "publicValue2", "type": "uint256"},
			{"name": "description", "type": "string"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "verifyDecryption",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "businessId", "type": "string"},
			{"name": "abiEncodedClearValue", "type": "bytes"},
			{"name": "decryptionProof", "type": "bytes"}
		],
		"outputs": []
	}
]`

var (
	parsedOnce sync.Once
	parsedABI  abi.ABI
	parseErr   error
)

// ParsedABI returns the registry ABI, parsing it on first use.
func ParsedABI() (abi.ABI, error) {
	parsedOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(RegistryABI))
	})
	return parsedABI, parseErr
}

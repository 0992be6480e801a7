// Package rootchain holds the ABI fragments of the plasma framework contracts
// the client talks to, and thin bindings over bind.BoundContract in the shape
// abigen would produce.
package rootchain

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// PlasmaFrameworkMetaData covers the vault/exit game registries, the exit
// queues and the child block registry.
var PlasmaFrameworkMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[{"internalType":"uint256","name":"_vaultId","type":"uint256"}],"name":"vaults","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"_txType","type":"uint256"}],"name":"exitGames","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"vaultId","type":"uint256"},{"internalType":"address","name":"token","type":"address"}],"name":"hasExitQueue","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"vaultId","type":"uint256"},{"internalType":"address","name":"token","type":"address"}],"name":"addExitQueue","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"uint256","name":"vaultId","type":"uint256"},{"internalType":"address","name":"token","type":"address"},{"internalType":"uint160","name":"topExitId","type":"uint160"},{"internalType":"uint256","name":"maxExitsToProcess","type":"uint256"},{"internalType":"bytes32","name":"senderData","type":"bytes32"}],"name":"processExits","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"name":"exitsQueues","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"minExitPeriod","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"uint256","name":"","type":"uint256"}],"name":"blocks","outputs":[{"internalType":"bytes32","name":"root","type":"bytes32"},{"internalType":"uint256","name":"timestamp","type":"uint256"}],"stateMutability":"view","type":"function"}
]`,
}

// PaymentExitGameMetaData covers standard exits, in-flight exits and piggybacks.
var PaymentExitGameMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[{"components":[{"internalType":"uint256","name":"utxoPos","type":"uint256"},{"internalType":"bytes","name":"rlpOutputTx","type":"bytes"},{"internalType":"bytes","name":"outputTxInclusionProof","type":"bytes"}],"internalType":"struct PaymentStandardExitRouterArgs.StartStandardExitArgs","name":"args","type":"tuple"}],"name":"startStandardExit","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"components":[{"internalType":"bytes","name":"inFlightTx","type":"bytes"},{"internalType":"bytes[]","name":"inputTxs","type":"bytes[]"},{"internalType":"uint256[]","name":"inputUtxosPos","type":"uint256[]"},{"internalType":"bytes[]","name":"inputTxsInclusionProofs","type":"bytes[]"},{"internalType":"bytes[]","name":"inFlightTxWitnesses","type":"bytes[]"}],"internalType":"struct PaymentInFlightExitRouterArgs.StartExitArgs","name":"args","type":"tuple"}],"name":"startInFlightExit","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"components":[{"internalType":"bytes","name":"inFlightTx","type":"bytes"},{"internalType":"uint16","name":"outputIndex","type":"uint16"}],"internalType":"struct PaymentInFlightExitRouterArgs.PiggybackInFlightExitOnOutputArgs","name":"args","type":"tuple"}],"name":"piggybackInFlightExitOnOutput","outputs":[],"stateMutability":"payable","type":"function"},
{"inputs":[{"internalType":"bool","name":"_isDeposit","type":"bool"},{"internalType":"bytes","name":"_txBytes","type":"bytes"},{"internalType":"uint256","name":"_utxoPos","type":"uint256"}],"name":"getStandardExitId","outputs":[{"internalType":"uint160","name":"","type":"uint160"}],"stateMutability":"pure","type":"function"},
{"inputs":[{"internalType":"bytes","name":"_txBytes","type":"bytes"}],"name":"getInFlightExitId","outputs":[{"internalType":"uint160","name":"","type":"uint160"}],"stateMutability":"pure","type":"function"},
{"inputs":[],"name":"startStandardExitBondSize","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"startIFEBondSize","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"piggybackBondSize","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"}
]`,
}

// VaultMetaData is shared by the ETH and ERC20 vaults, both take the RLP
// encoded deposit transaction.
var VaultMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[{"internalType":"bytes","name":"depositTx","type":"bytes"}],"name":"deposit","outputs":[],"stateMutability":"payable","type":"function"}
]`,
}

var PriorityQueueMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[],"name":"heapList","outputs":[{"internalType":"uint256[]","name":"","type":"uint256[]"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"currentSize","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`,
}

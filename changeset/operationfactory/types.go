package operationfactory

import (
	"math/big"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/operation-factory/datastore"
)

// Contract types recorded in the datastore.
const (
	OperationType         datastore.ContractType = "Operation"
	OperationFactoryType  datastore.ContractType = "OperationFactory"
	OperationInstanceType datastore.ContractType = "OperationInstance"
)

// Version1_0_0 is the version of the contracts and of the operations deploying them.
var Version1_0_0 = semver.MustParse("1.0.0")

// InstanceMetadata is the contract metadata recorded for every built instance.
type InstanceMetadata struct {
	Factory      common.Address `json:"factory"`
	Standard     *big.Int       `json:"standard"`
	TerraAddress common.Hash    `json:"terraAddress"`
	Controller   common.Address `json:"controller"`
	Deployer     common.Address `json:"deployer"`
	TxHash       common.Hash    `json:"txHash"`
	BlockNumber  uint64         `json:"blockNumber"`
}

// standardOrZero returns a copy of standard, or 0 when it is nil.
func standardOrZero(standard *big.Int) *big.Int {
	if standard == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(standard)
}

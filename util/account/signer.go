package account

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// Signer is the opaque signing capability. Key material never leaves it.
type Signer interface {
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

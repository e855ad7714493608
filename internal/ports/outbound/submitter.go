package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// TxRequest is a signed-and-sent contract write.
type TxRequest struct {
	To     common.Address
	Method string
	Data   []byte
	Value  *big.Int
}

// TxSubmitter signs and broadcasts keeper transactions. Nonce and gas
// conflicts are reported through the result outcome, not as errors.
type TxSubmitter interface {
	Submit(ctx context.Context, req TxRequest) (entity.SubmitResult, error)
}

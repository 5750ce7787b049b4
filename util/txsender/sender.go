// Package txsender turns an encoded contract call into a confirmed
// transaction: simulate, sign, broadcast, wait.
package txsender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/util/account"
	"github.com/tranvictor/bnames/util/monitor"
)

// gas estimates are padded by this percentage
const gasBufferPercent = 120

// Transactor is the signer boundary every write goes through.
type Transactor interface {
	From() common.Address
	Simulate(ctx context.Context, call contracts.Call) error
	Send(ctx context.Context, call contracts.Call) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error)
}

// ChainClient is satisfied by *reader.EthReader.
type ChainClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type TxBroadcaster interface {
	BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

type Waiter interface {
	BlockingWait(ctx context.Context, hash common.Hash, confirmations uint64) (monitor.TxInfo, error)
}

type Sender struct {
	chainID     *big.Int
	client      ChainClient
	broadcaster TxBroadcaster
	waiter      Waiter
	account     *account.Account
	logger      *slog.Logger

	mu        sync.Mutex
	nextNonce *uint64
}

func NewSender(
	chainID *big.Int,
	client ChainClient,
	broadcaster TxBroadcaster,
	waiter Waiter,
	acc *account.Account,
	logger *slog.Logger,
) *Sender {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sender{
		chainID:     chainID,
		client:      client,
		broadcaster: broadcaster,
		waiter:      waiter,
		account:     acc,
		logger:      logger,
	}
}

func (s *Sender) From() common.Address {
	return s.account.Address()
}

func (s *Sender) msg(call contracts.Call) ethereum.CallMsg {
	to := call.To
	return ethereum.CallMsg{
		From:  s.From(),
		To:    &to,
		Value: call.Value,
		Data:  call.Data,
	}
}

// Simulate runs call against the latest block as the signer.
func (s *Sender) Simulate(ctx context.Context, call contracts.Call) error {
	_, err := s.client.CallContract(ctx, s.msg(call), nil)
	return err
}

func (s *Sender) nonce(ctx context.Context) (uint64, error) {
	pending, err := s.client.PendingNonceAt(ctx, s.From())
	if err != nil {
		return 0, fmt.Errorf("couldn't get nonce: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextNonce != nil && *s.nextNonce > pending {
		return *s.nextNonce, nil
	}
	return pending, nil
}

func (s *Sender) markUsed(nonce uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := nonce + 1
	s.nextNonce = &next
}

// Send builds a dynamic fee tx for call, signs and broadcasts it. The fee
// cap is twice the latest base fee plus the suggested tip.
func (s *Sender) Send(ctx context.Context, call contracts.Call) (common.Hash, error) {
	gas, err := s.client.EstimateGas(ctx, s.msg(call))
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't estimate gas: %w", err)
	}
	gas = gas * gasBufferPercent / 100

	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get gas tip: %w", err)
	}
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get latest header: %w", err)
	}
	baseFee := big.NewInt(0)
	if head.BaseFee != nil {
		baseFee = head.BaseFee
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)

	nonce, err := s.nonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}
	to := call.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      call.Data,
	})
	signed, err := s.account.SignTx(tx, s.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err := s.broadcaster.BroadcastTx(ctx, signed)
	if err != nil {
		return hash, err
	}
	s.markUsed(nonce)
	s.logger.Debug("broadcasted tx",
		"method", call.Method, "hash", hash.Hex(), "nonce", nonce, "gas", gas)
	return hash, nil
}

func (s *Sender) WaitMined(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error) {
	info, err := s.waiter.BlockingWait(ctx, hash, confirmations)
	if err != nil {
		return nil, err
	}
	return info.Receipt, nil
}

// RevertReason extracts a human readable reason from an eth_call error.
// Standard Error(string) reverts are decoded, custom errors are reported
// by selector. It returns "" when err carries no revert data.
func RevertReason(err error) string {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return ""
	}
	raw, ok := de.ErrorData().(string)
	if !ok {
		return ""
	}
	data, derr := hexutil.Decode(raw)
	if derr != nil || len(data) == 0 {
		return ""
	}
	if reason, uerr := abi.UnpackRevert(data); uerr == nil {
		return reason
	}
	if len(data) >= 4 {
		return "custom error " + hexutil.Encode(data[:4])
	}
	return ""
}

// IsRevert reports whether err is the node rejecting a call because the
// contract reverted, as opposed to the call never reaching the contract.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var de rpc.DataError
	if errors.As(err, &de) && de.ErrorData() != nil {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

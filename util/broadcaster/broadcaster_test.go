package broadcaster

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	err  error
	sent []string
}

func (f *fakeRPC) CallContext(_ context.Context, _ interface{}, method string, args ...interface{}) error {
	if method != "eth_sendRawTransaction" {
		return errors.New("unexpected method " + method)
	}
	f.sent = append(f.sent, args[0].(string))
	return f.err
}

func signedTx(t *testing.T) *types.Transaction {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := common.HexToAddress("0x1493b2567056c2181630115660963E13A8E32735")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(84532),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       50000,
		To:        &to,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(84532)), key)
	require.NoError(t, err)
	return signed
}

func TestBroadcastSucceedsWhenOneNodeAccepts(t *testing.T) {
	good := &fakeRPC{}
	bad := &fakeRPC{err: errors.New("nonce too low")}
	b := NewBroadcaster(map[string]RawSender{"good": good, "bad": bad}, 0)

	tx := signedTx(t)
	hash, err := b.BroadcastTx(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)
	assert.Len(t, good.sent, 1)
	assert.Len(t, bad.sent, 1)
}

func TestBroadcastFailsWhenAllNodesReject(t *testing.T) {
	b := NewBroadcaster(map[string]RawSender{
		"a": &fakeRPC{err: errors.New("insufficient funds")},
	}, 0)
	_, err := b.BroadcastTx(context.Background(), signedTx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: insufficient funds")
}

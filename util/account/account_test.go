package account

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func TestPrivateKeyFromHexAcceptsPrefix(t *testing.T) {
	naked, err := PrivateKeyFromHex(testKey)
	require.NoError(t, err)
	prefixed, err := PrivateKeyFromHex("0x" + testKey + "\n")
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(naked.PublicKey), crypto.PubkeyToAddress(prefixed.PublicKey))
}

func TestLoadAccountFromHexFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(file, []byte("0x"+testKey+"\n"), 0o600))

	acc, err := LoadAccount(file, nil)
	require.NoError(t, err)

	key, _ := PrivateKeyFromHex(testKey)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), acc.Address())
}

func TestLoadAccountRejectsGarbage(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(file, []byte("not a key"), 0o600))
	_, err := LoadAccount(file, nil)
	assert.Error(t, err)
}

func TestLoadKeystoreNeedsPassword(t *testing.T) {
	file := filepath.Join(t.TempDir(), "keystore.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"version":3}`), 0o600))
	_, err := LoadAccount(file, nil)
	assert.ErrorContains(t, err, "needs a password")
}

func TestSignTxRecoversSender(t *testing.T) {
	key, err := PrivateKeyFromHex(testKey)
	require.NoError(t, err)
	acc := NewKeyAccount(key)

	chainID := big.NewInt(84532)
	to := common.HexToAddress("0x0000000000000000000000000000000000000001")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(0),
	})
	signed, err := acc.SignTx(tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, acc.Address(), sender)
}

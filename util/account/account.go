package account

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type Account struct {
	signer  Signer
	address common.Address
}

func NewAccount(signer Signer, address common.Address) *Account {
	return &Account{signer: signer, address: address}
}

func NewKeyAccount(key *ecdsa.PrivateKey) *Account {
	return &Account{
		NewKeySigner(key),
		crypto.PubkeyToAddress(key.PublicKey),
	}
}

func NewKeystoreAccount(file string, password string) (*Account, error) {
	key, err := PrivateKeyFromKeystore(file, password)
	if err != nil {
		return nil, err
	}
	return NewKeyAccount(key), nil
}

// LoadAccount reads a key file. Keystore JSON files are decrypted with the
// password returned by askPassword; anything else is read as a hex key.
func LoadAccount(file string, askPassword func() (string, error)) (*Account, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't read key file: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(content), []byte("{")) {
		if askPassword == nil {
			return nil, fmt.Errorf("%s is a keystore file and needs a password", file)
		}
		password, err := askPassword()
		if err != nil {
			return nil, err
		}
		key, err := PrivateKeyFromKeystoreJSON(content, password)
		if err != nil {
			return nil, err
		}
		return NewKeyAccount(key), nil
	}
	key, err := PrivateKeyFromHex(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s is neither a keystore nor a hex private key: %w", file, err)
	}
	return NewKeyAccount(key), nil
}

func (a *Account) Address() common.Address {
	return a.address
}

func (a *Account) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signedTx, err := a.signer.SignTx(tx, chainID)
	if err != nil {
		return tx, fmt.Errorf("couldn't sign the tx: %w", err)
	}
	return signedTx, nil
}

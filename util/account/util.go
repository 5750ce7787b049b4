package account

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

func PrivateKeyFromKeystore(file string, password string) (*ecdsa.PrivateKey, error) {
	json, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromKeystoreJSON(json, password)
}

func PrivateKeyFromKeystoreJSON(json []byte, password string) (*ecdsa.PrivateKey, error) {
	key, err := keystore.DecryptKey(json, password)
	if err != nil {
		return nil, fmt.Errorf("couldn't decrypt keystore: %w", err)
	}
	return key.PrivateKey, nil
}

// works with both 0x prefix form and naked form
func PrivateKeyFromHex(hex string) (*ecdsa.PrivateKey, error) {
	hex = strings.TrimSpace(hex)
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	return crypto.HexToECDSA(hex)
}

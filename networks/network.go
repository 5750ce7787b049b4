package networks

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ReverseRegistrarKind selects the calling convention of setNameForAddr on
// a network. It is fixed per network and never probed at runtime.
type ReverseRegistrarKind string

const (
	// setNameForAddr(address addr, address owner, address resolver, string name)
	ReverseRegistrarV1 ReverseRegistrarKind = "v1"
	// setNameForAddr(address addr, string name)
	ReverseRegistrarV2 ReverseRegistrarKind = "v2"
)

const ethCoinType uint64 = 60

type Contracts struct {
	Registry            common.Address `json:"registry"`
	Resolver            common.Address `json:"resolver"`
	RegistrarController common.Address `json:"registrar_controller"`
	ReverseRegistrar    common.Address `json:"reverse_registrar"`
}

// Network describes one deployment of the naming directory. Values are
// loaded once and never mutated afterwards.
type Network struct {
	Name                 string               `json:"name"`
	AlternativeNames     []string             `json:"alternative_names"`
	ChainID              uint64               `json:"chain_id"`
	ParentDomain         string               `json:"parent_domain"`
	ReverseDomain        string               `json:"reverse_domain"`
	CoinType             uint64               `json:"coin_type,omitempty"`
	Contracts            Contracts            `json:"contracts"`
	ReverseRegistrarKind ReverseRegistrarKind `json:"reverse_registrar_kind"`
	IndexURL             string               `json:"index_url"`
	BlockTime            uint64               `json:"block_time"`
	NodeVariableName     string               `json:"node_variable_name"`
	DefaultNodes         map[string]string    `json:"default_nodes"`
	BlockExplorerURL     string               `json:"block_explorer_url"`
}

func NewNetworkFromJSON(content []byte) (Network, error) {
	n := Network{}
	if err := json.Unmarshal(content, &n); err != nil {
		return Network{}, fmt.Errorf("failed to unmarshal network config: %w", err)
	}
	if err := n.Validate(); err != nil {
		return Network{}, err
	}
	return n, nil
}

func (n Network) MarshalJSON() ([]byte, error) {
	type plain Network
	return json.MarshalIndent(plain(n), "", "  ")
}

func (n Network) Validate() error {
	switch {
	case n.Name == "":
		return fmt.Errorf("network name is required")
	case n.ChainID == 0:
		return fmt.Errorf("network %s: chain_id is required", n.Name)
	case n.ParentDomain == "":
		return fmt.Errorf("network %s: parent_domain is required", n.Name)
	case n.Contracts.Registry == (common.Address{}):
		return fmt.Errorf("network %s: registry address is required", n.Name)
	}
	switch n.ReverseRegistrarKind {
	case ReverseRegistrarV1, ReverseRegistrarV2:
	default:
		return fmt.Errorf("network %s: reverse_registrar_kind must be %q or %q", n.Name, ReverseRegistrarV1, ReverseRegistrarV2)
	}
	return nil
}

// AddressCoinType is the coin type address records are written under on
// this network: 60 on Ethereum mainnet, 0x80000000|chainID on L2s.
func (n Network) AddressCoinType() uint64 {
	if n.CoinType != 0 {
		return n.CoinType
	}
	if n.ChainID == 1 {
		return ethCoinType
	}
	return 0x80000000 | n.ChainID
}

func (n Network) GetBlockTime() time.Duration {
	return time.Duration(n.BlockTime) * time.Second
}

// Nodes returns the RPC endpoints to use, including the one set through the
// network's node variable.
func (n Network) Nodes() map[string]string {
	nodes := map[string]string{}
	for name, url := range n.DefaultNodes {
		nodes[name] = url
	}
	if n.NodeVariableName != "" {
		custom := strings.TrimSpace(os.Getenv(n.NodeVariableName))
		if custom != "" {
			nodes["custom-node"] = custom
		}
	}
	return nodes
}

func (n Network) TxURL(hash common.Hash) string {
	if n.BlockExplorerURL == "" {
		return hash.Hex()
	}
	return strings.TrimRight(n.BlockExplorerURL, "/") + "/tx/" + hash.Hex()
}

func (n Network) AddressURL(addr common.Address) string {
	if n.BlockExplorerURL == "" {
		return addr.Hex()
	}
	return strings.TrimRight(n.BlockExplorerURL, "/") + "/address/" + addr.Hex()
}

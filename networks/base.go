package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var BaseMainnet = Network{
	Name:             "base",
	AlternativeNames: []string{"base-mainnet"},
	ChainID:          8453,
	ParentDomain:     "base.eth",
	ReverseDomain:    "80002105.reverse",
	Contracts: Contracts{
		Registry:            common.HexToAddress("0xb94704422c2a1e396835a571837aa5ae53285a95"),
		Resolver:            common.HexToAddress("0xC6d566A56A1aFf6508b41f6c90ff131615583BCD"),
		RegistrarController: common.HexToAddress("0x4cCb0BB02FCABA27e82a56646E81d8c5bC4119a5"),
		ReverseRegistrar:    common.HexToAddress("0x79ea96012eea67a83431f1701b3dff7e37f9e282"),
	},
	ReverseRegistrarKind: ReverseRegistrarV1,
	BlockTime:            2,
	NodeVariableName:     "BASE_MAINNET_NODE",
	DefaultNodes: map[string]string{
		"public-base": "https://mainnet.base.org",
	},
	BlockExplorerURL: "https://basescan.org",
}

var BaseSepolia = Network{
	Name:             "base-sepolia",
	AlternativeNames: []string{"base-testnet"},
	ChainID:          84532,
	ParentDomain:     "basetest.eth",
	ReverseDomain:    "80014a34.reverse",
	Contracts: Contracts{
		Registry:            common.HexToAddress("0x1493b2567056c2181630115660963E13A8E32735"),
		Resolver:            common.HexToAddress("0x6533C94869D28fAA8dF77cc63f9e2b2D6Cf77eBA"),
		RegistrarController: common.HexToAddress("0x49aE3cC2e3AA768B1e5654f5D3C6002144A59581"),
		ReverseRegistrar:    common.HexToAddress("0xa0A8401ECF248a9375a0a71C4dedc263dA18dCd7"),
	},
	ReverseRegistrarKind: ReverseRegistrarV2,
	BlockTime:            2,
	NodeVariableName:     "BASE_SEPOLIA_NODE",
	DefaultNodes: map[string]string{
		"public-base-sepolia": "https://sepolia.base.org",
	},
	BlockExplorerURL: "https://sepolia.basescan.org",
}

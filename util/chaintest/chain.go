// Package chaintest is an in-memory stand-in for the registry, resolver,
// registrar controller and reverse registrar of one network. It answers
// eth_call style reads and executes writes sent through it, enforcing the
// same authorization rules as the deployed contracts.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tranvictor/bnames/contracts"
	"github.com/tranvictor/bnames/namehash"
	"github.com/tranvictor/bnames/networks"
)

var errorSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// RevertError looks like the error a node returns for a reverted eth_call.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int { return 3 }

func (e *RevertError) ErrorData() interface{} {
	if e.Reason == "" {
		return "0x"
	}
	stringType, _ := abi.NewType("string", "", nil)
	payload, _ := abi.Arguments{{Type: stringType}}.Pack(e.Reason)
	return hexutil.Encode(append(append([]byte{}, errorSelector...), payload...))
}

func revert(reason string) error {
	return &RevertError{Reason: reason}
}

type Chain struct {
	mu      sync.Mutex
	network networks.Network
	signer  common.Address

	owners    map[common.Hash]common.Address
	resolvers map[common.Hash]common.Address
	addrs     map[common.Hash]map[uint64][]byte
	texts     map[common.Hash]map[string]string
	names     map[common.Hash]string

	resolverContracts map[common.Address]bool
	ownables          map[common.Address]common.Address
	registered        map[string]bool
	pricePerYear      *big.Int

	reverts      map[string]string
	mineFailures map[string]bool
	readErr      error

	sent     []contracts.Call
	receipts map[common.Hash]*types.Receipt
	block    uint64
}

// New returns a chain for n where signer is the account sending txs. The
// network's default resolver is deployed and the parent domain is owned by
// nobody until the test says otherwise.
func New(n networks.Network, signer common.Address) *Chain {
	c := &Chain{
		network:           n,
		signer:            signer,
		owners:            map[common.Hash]common.Address{},
		resolvers:         map[common.Hash]common.Address{},
		addrs:             map[common.Hash]map[uint64][]byte{},
		texts:             map[common.Hash]map[string]string{},
		names:             map[common.Hash]string{},
		resolverContracts: map[common.Address]bool{n.Contracts.Resolver: true},
		ownables:          map[common.Address]common.Address{},
		registered:        map[string]bool{},
		pricePerYear:      big.NewInt(1_000_000_000_000_000),
		reverts:           map[string]string{},
		mineFailures:      map[string]bool{},
		receipts:          map[common.Hash]*types.Receipt{},
		block:             100,
	}
	return c
}

func (c *Chain) Network() networks.Network { return c.network }

// SetOwner sets the registry owner of the node of name.
func (c *Chain) SetOwner(name string, owner common.Address) common.Hash {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[node] = owner
	return node
}

func (c *Chain) SetResolver(name string, resolver common.Address) {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolvers[node] = resolver
	c.resolverContracts[resolver] = true
}

func (c *Chain) SetAddr(name string, coinType uint64, addr common.Address) {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setAddr(node, coinType, addr.Bytes())
}

func (c *Chain) SetText(name, key, value string) {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setText(node, key, value)
}

// SetPrimaryName records name as the primary name of addr, served by the
// network's default resolver.
func (c *Chain) SetPrimaryName(addr common.Address, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	node := c.reverseNode(addr)
	c.owners[node] = addr
	c.resolvers[node] = c.network.Contracts.Resolver
	c.names[node] = name
}

// DeployOwnable makes contract answer owner() with owner.
func (c *Chain) DeployOwnable(contract, owner common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownables[contract] = owner
}

// Register marks label as taken.
func (c *Chain) Register(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered[label] = true
}

func (c *Chain) SetPricePerYear(price *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pricePerYear = price
}

// RevertOn makes every call to method ("Contract.method") revert.
func (c *Chain) RevertOn(method, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reverts[method] = reason
}

// FailOnMine lets method pass simulation but revert once mined.
func (c *Chain) FailOnMine(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mineFailures[method] = true
}

// FailReads makes every eth_call fail with err, like an unreachable node.
func (c *Chain) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

// Sent returns the calls sent as transactions so far.
func (c *Chain) Sent() []contracts.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]contracts.Call{}, c.sent...)
}

func (c *Chain) Owner(name string) common.Address {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owners[node]
}

func (c *Chain) Addr(name string, coinType uint64) common.Address {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.BytesToAddress(c.addrs[node][coinType])
}

func (c *Chain) Text(name, key string) string {
	node := mustNameHash(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.texts[node][key]
}

func (c *Chain) PrimaryName(addr common.Address) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.names[c.reverseNode(addr)]
}

// CallContract implements contracts.Caller.
func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil {
		return nil, errors.New("chaintest: contract creation is not supported")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	out, _, err := c.exec(msg.From, *msg.To, msg.Data, msg.Value, false)
	return out, err
}

func (c *Chain) From() common.Address { return c.signer }

func (c *Chain) Simulate(ctx context.Context, call contracts.Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	_, _, err := c.exec(c.signer, call.To, call.Data, call.Value, false)
	return err
}

// Send executes call and mines it in a new block immediately. A call that
// reverts still produces a receipt, with a failed status.
func (c *Chain) Send(ctx context.Context, call contracts.Call) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sent = append(c.sent, call)
	c.block++
	hash := crypto.Keccak256Hash(big.NewInt(int64(len(c.sent))).Bytes(), call.Data)
	status := types.ReceiptStatusSuccessful

	_, method, err := c.exec(c.signer, call.To, call.Data, call.Value, false)
	if err != nil || c.mineFailures[method] {
		status = types.ReceiptStatusFailed
	} else {
		c.exec(c.signer, call.To, call.Data, call.Value, true)
	}
	c.receipts[hash] = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(c.block),
	}
	return hash, nil
}

func (c *Chain) WaitMined(ctx context.Context, hash common.Hash, _ uint64) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func mustNameHash(name string) common.Hash {
	node, err := namehash.NameHash(name)
	if err != nil {
		panic(fmt.Sprintf("chaintest: %s: %s", name, err))
	}
	return node
}

func (c *Chain) reverseNode(addr common.Address) common.Hash {
	node, err := namehash.ReverseNode(addr, c.network.ReverseDomain)
	if err != nil {
		panic(err)
	}
	return node
}

func (c *Chain) setAddr(node common.Hash, coinType uint64, value []byte) {
	if c.addrs[node] == nil {
		c.addrs[node] = map[uint64][]byte{}
	}
	c.addrs[node][coinType] = value
}

func (c *Chain) setText(node common.Hash, key, value string) {
	if c.texts[node] == nil {
		c.texts[node] = map[string]string{}
	}
	c.texts[node][key] = value
}

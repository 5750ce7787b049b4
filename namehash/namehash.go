// Package namehash derives the 32 byte nodes that key every registry and
// resolver lookup.
//
// Two regimes exist. A top-level name (exactly one label under the parent
// domain) is hashed as Subnode(NameHash(parent), LabelHash(label)). Every
// name with more labels uses the standard recursive scheme over all of its
// labels. Both agree on every name, which is what lets a subname created
// with setSubnodeRecord(parentNode, labelHash) be found again by its full
// name.
package namehash

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tranvictor/bnames/errs"
)

// Name is a parsed, normalized name under a parent domain.
type Name struct {
	Labels []string // labels in front of the parent domain, left to right
	Parent string
	Full   string
	Node   common.Hash
}

// IsTopLevel reports whether the name is exactly one label under the parent.
func (n Name) IsTopLevel() bool {
	return len(n.Labels) == 1
}

// Label returns the left-most label.
func (n Name) Label() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// ParentName returns the full name one level up, e.g. "alice.base.eth" for
// "vault.alice.base.eth". For a top-level name it is the parent domain.
func (n Name) ParentName() string {
	if len(n.Labels) <= 1 {
		return n.Parent
	}
	return strings.Join(n.Labels[1:], ".") + "." + n.Parent
}

// Subnode combines a parent node with a label hash.
func Subnode(parent, labelHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(parent.Bytes(), labelHash.Bytes())
}

// LabelHash normalizes label and hashes it.
func LabelHash(label string) (common.Hash, error) {
	normalized, err := NormalizeLabel(label)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(normalized)), nil
}

// NameHash normalizes name and applies the recursive scheme. The empty
// name hashes to the zero root.
func NameHash(name string) (common.Hash, error) {
	if name == "" {
		return common.Hash{}, nil
	}
	normalized, err := Normalize(name)
	if err != nil {
		return common.Hash{}, err
	}
	return recursive(strings.Split(normalized, ".")), nil
}

func recursive(labels []string) common.Hash {
	node := common.Hash{}
	for i := len(labels) - 1; i >= 0; i-- {
		node = Subnode(node, crypto.Keccak256Hash([]byte(labels[i])))
	}
	return node
}

// Parse normalizes input and splits it into labels under parentDomain.
// The parent domain is appended when input does not already end with it.
func Parse(input, parentDomain string) (Name, error) {
	parent, err := Normalize(parentDomain)
	if err != nil {
		return Name{}, err
	}
	full, err := Normalize(input)
	if err != nil {
		return Name{}, err
	}

	var rest string
	switch {
	case full == parent:
		return Name{}, errs.InvalidName(input, fmt.Errorf("name has no label under %s", parent))
	case strings.HasSuffix(full, "."+parent):
		rest = strings.TrimSuffix(full, "."+parent)
	default:
		rest = full
		full = full + "." + parent
	}

	labels := strings.Split(rest, ".")
	name := Name{
		Labels: labels,
		Parent: parent,
		Full:   full,
	}
	parentNode := recursive(strings.Split(parent, "."))
	if name.IsTopLevel() {
		name.Node = Subnode(parentNode, crypto.Keccak256Hash([]byte(labels[0])))
	} else {
		name.Node = recursive(strings.Split(full, "."))
	}
	return name, nil
}

// ComputeNode returns the node of fullName under parentDomain.
func ComputeNode(fullName, parentDomain string) (common.Hash, error) {
	name, err := Parse(fullName, parentDomain)
	if err != nil {
		return common.Hash{}, err
	}
	return name.Node, nil
}

// ReverseNode is the node holding the primary name of addr under a reverse
// domain such as "addr.reverse" or "80002105.reverse".
func ReverseNode(addr common.Address, reverseDomain string) (common.Hash, error) {
	base, err := NameHash(reverseDomain)
	if err != nil {
		return common.Hash{}, err
	}
	label := strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x"))
	return Subnode(base, crypto.Keccak256Hash([]byte(label))), nil
}

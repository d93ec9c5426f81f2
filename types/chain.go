package types

import "strings"

// ChainFamily classifies a chain by its address and signature scheme.
type ChainFamily string

const (
	FamilyMove    ChainFamily = "move"
	FamilyEVM     ChainFamily = "evm"
	FamilySolana  ChainFamily = "solana"
	FamilyUnknown ChainFamily = ""
)

// Chain is the blockchain family a wallet lives on, as named by the frontend.
type Chain string

const (
	ChainSui       Chain = "sui"
	ChainEthereum  Chain = "ethereum"
	ChainPolygon   Chain = "polygon"
	ChainBSC       Chain = "bsc"
	ChainAvalanche Chain = "avalanche"
	ChainBase      Chain = "base"
	ChainSolana    Chain = "solana"
)

// DefaultChain and DefaultNetwork fill transaction requests when the caller leaves them empty.
const (
	DefaultChain   = ChainSui
	DefaultNetwork = "mainnet"

	// FallbackSymbol is shown when neither the chain table nor the reply name a symbol.
	FallbackSymbol = "TOKEN"
)

type chainInfo struct {
	canonical Chain
	family    ChainFamily
	symbol    string
}

var chainTable = map[string]chainInfo{
	"sui":       {ChainSui, FamilyMove, "SUI"},
	"ethereum":  {ChainEthereum, FamilyEVM, "ETH"},
	"eth":       {ChainEthereum, FamilyEVM, "ETH"},
	"evm":       {ChainEthereum, FamilyEVM, "ETH"},
	"base":      {ChainBase, FamilyEVM, "ETH"},
	"polygon":   {ChainPolygon, FamilyEVM, "MATIC"},
	"matic":     {ChainPolygon, FamilyEVM, "MATIC"},
	"binance":   {ChainBSC, FamilyEVM, "BNB"},
	"bsc":       {ChainBSC, FamilyEVM, "BNB"},
	"bnb":       {ChainBSC, FamilyEVM, "BNB"},
	"avalanche": {ChainAvalanche, FamilyEVM, "AVAX"},
	"avax":      {ChainAvalanche, FamilyEVM, "AVAX"},
	"solana":    {ChainSolana, FamilySolana, "SOL"},
	"sol":       {ChainSolana, FamilySolana, "SOL"},
}

func lookupChain(name string) (chainInfo, bool) {
	info, ok := chainTable[strings.ToLower(strings.TrimSpace(name))]
	return info, ok
}

// IsKnown reports whether the chain or one of its aliases is in the table.
func (c Chain) IsKnown() bool {
	_, ok := lookupChain(string(c))
	return ok
}

// Canonical resolves aliases such as "eth" or "matic". Unknown chains are lowercased.
func (c Chain) Canonical() Chain {
	if info, ok := lookupChain(string(c)); ok {
		return info.canonical
	}
	return Chain(strings.ToLower(strings.TrimSpace(string(c))))
}

func (c Chain) Family() ChainFamily {
	if info, ok := lookupChain(string(c)); ok {
		return info.family
	}
	return FamilyUnknown
}

func (c Chain) IsEVM() bool    { return c.Family() == FamilyEVM }
func (c Chain) IsSolana() bool { return c.Family() == FamilySolana }

// NativeSymbol returns the table symbol, or "" for unknown chains.
func (c Chain) NativeSymbol() string {
	if info, ok := lookupChain(string(c)); ok {
		return info.symbol
	}
	return ""
}

func (c Chain) String() string { return string(c) }

// DisplaySymbol picks the symbol to show for a balance on chain.
// A known chain always uses its native symbol; otherwise the inbound symbol is kept,
// and an empty one becomes FallbackSymbol.
func DisplaySymbol(chain, inbound string) string {
	if sym := Chain(chain).NativeSymbol(); sym != "" {
		return sym
	}
	if strings.TrimSpace(inbound) != "" {
		return inbound
	}
	return FallbackSymbol
}

package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/vitwit/walletbridge/types"
)

var (
	hexPattern    = regexp.MustCompile("^[0-9a-fA-F]+$")
	base58Pattern = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// AddressPolicy checks the address format of one chain.
type AddressPolicy interface {
	Check(address string) error
}

// HexPolicy accepts 0x followed by exactly Length hex digits.
type HexPolicy struct {
	Length int
}

func (p HexPolicy) Check(address string) error {
	if !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("address must start with 0x")
	}
	if len(address)-2 != p.Length {
		return fmt.Errorf("address must be %d characters long", p.Length+2)
	}
	if !isHexString(address[2:]) {
		return fmt.Errorf("address must be valid hex")
	}
	return nil
}

// EVMPolicy accepts 20-byte hex addresses with the 0x prefix.
type EVMPolicy struct{}

func (EVMPolicy) Check(address string) error {
	if !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("EVM address must start with 0x")
	}
	if !common.IsHexAddress(address) {
		return fmt.Errorf("EVM address must be 42 characters of hex")
	}
	return nil
}

// Base58Policy accepts base58 strings within a length range.
type Base58Policy struct {
	Min, Max int
}

func (p Base58Policy) Check(address string) error {
	if len(address) < p.Min || len(address) > p.Max {
		return fmt.Errorf("address has invalid length")
	}
	if !isBase58String(address) {
		return fmt.Errorf("address must be valid base58")
	}
	return nil
}

// ValidatorConfig selects the address policy per chain and the amount bound.
type ValidatorConfig struct {
	Policies      map[types.Chain]AddressPolicy
	DefaultPolicy AddressPolicy
	// MaxAmount is an upper sanity bound; zero disables it.
	MaxAmount    decimal.Decimal
	StrictChains []string
}

// DefaultValidatorConfig uses 32-byte hex for sui and unknown chains.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		Policies: map[types.Chain]AddressPolicy{
			types.ChainSui:       HexPolicy{Length: 64},
			types.ChainEthereum:  EVMPolicy{},
			types.ChainPolygon:   EVMPolicy{},
			types.ChainBSC:       EVMPolicy{},
			types.ChainAvalanche: EVMPolicy{},
			types.ChainBase:      EVMPolicy{},
			types.ChainSolana:    Base58Policy{Min: 32, Max: 44},
		},
		DefaultPolicy: HexPolicy{Length: 64},
		MaxAmount:     decimal.NewFromInt(100000),
	}
}

// ValidatorConfigFromBridge applies the config's amount bound and strict chain list.
func ValidatorConfigFromBridge(cfg *types.BridgeConfig) (ValidatorConfig, error) {
	vc := DefaultValidatorConfig()
	if cfg == nil {
		return vc, nil
	}
	vc.StrictChains = cfg.StrictChains
	if cfg.MaxAmount == "" {
		vc.MaxAmount = decimal.Zero
		return vc, nil
	}
	bound, err := decimal.NewFromString(cfg.MaxAmount)
	if err != nil {
		return vc, types.NewError(types.ErrConfigError, "invalid maxAmount %q: %v", cfg.MaxAmount, err)
	}
	vc.MaxAmount = bound
	return vc, nil
}

// Validator checks outbound operation arguments before anything is sent.
type Validator struct {
	cfg ValidatorConfig
}

func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.DefaultPolicy == nil {
		cfg.DefaultPolicy = HexPolicy{Length: 64}
	}
	return &Validator{cfg: cfg}
}

// SetPolicy overrides the address policy of one chain.
func (v *Validator) SetPolicy(chain types.Chain, policy AddressPolicy) {
	if v.cfg.Policies == nil {
		v.cfg.Policies = make(map[types.Chain]AddressPolicy)
	}
	v.cfg.Policies[chain.Canonical()] = policy
}

func (v *Validator) policyFor(chain string) AddressPolicy {
	if p, ok := v.cfg.Policies[types.Chain(chain).Canonical()]; ok {
		return p
	}
	return v.cfg.DefaultPolicy
}

// ValidateAddress checks address against the policy of chain.
func (v *Validator) ValidateAddress(chain, address string) error {
	if strings.TrimSpace(address) == "" {
		return validationError("address cannot be empty")
	}
	if err := v.policyFor(chain).Check(address); err != nil {
		return validationError("invalid %s address: %v", chainLabel(chain), err)
	}
	return nil
}

func (v *Validator) IsValidAddress(chain, address string) bool {
	return v.ValidateAddress(chain, address) == nil
}

// ValidateAmount parses a strictly positive decimal within the configured bound.
func (v *Validator) ValidateAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, validationError("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, validationError("invalid amount format: %v", err)
	}

	if !dec.IsPositive() {
		return decimal.Zero, validationError("amount must be greater than zero")
	}

	if v.cfg.MaxAmount.IsPositive() && dec.GreaterThan(v.cfg.MaxAmount) {
		return decimal.Zero, validationError("amount cannot exceed %s", v.cfg.MaxAmount)
	}

	return dec, nil
}

func (v *Validator) IsValidAmount(amount string) bool {
	_, err := v.ValidateAmount(amount)
	return err == nil
}

func (v *Validator) ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return validationError("message cannot be empty")
	}
	return nil
}

func (v *Validator) IsValidMessage(message string) bool {
	return v.ValidateMessage(message) == nil
}

// ValidateChain requires a non-empty chain, from the allow-list in strict mode.
func (v *Validator) ValidateChain(chain string) error {
	chain = strings.TrimSpace(chain)
	if chain == "" {
		return validationError("chain cannot be empty")
	}
	if len(v.cfg.StrictChains) == 0 {
		return nil
	}
	for _, allowed := range v.cfg.StrictChains {
		if strings.EqualFold(allowed, chain) {
			return nil
		}
	}
	return validationError("unsupported chain: %s", chain)
}

func (v *Validator) IsValidChain(chain string) bool {
	return v.ValidateChain(chain) == nil
}

// ValidateStruct runs the validate tags of an outbound payload.
func (v *Validator) ValidateStruct(payload interface{}) error {
	if err := validate.Struct(payload); err != nil {
		return validationError("validation failed: %v", err)
	}
	return nil
}

// ValidateTransactionHash checks the hash format reported for a chain.
func ValidateTransactionHash(hash string, chain string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	switch types.Chain(chain).Family() {
	case types.FamilyEVM:
		// 0x + 64 hex
		if !strings.HasPrefix(hash, "0x") {
			return fmt.Errorf("EVM transaction hash must start with 0x")
		}
		if len(hash) != 66 {
			return fmt.Errorf("EVM transaction hash must be 66 characters long")
		}
		if !isHexString(hash[2:]) {
			return fmt.Errorf("EVM transaction hash must be valid hex")
		}

	case types.FamilySolana:
		if len(hash) < 80 || len(hash) > 90 {
			return fmt.Errorf("Solana transaction signature has invalid length")
		}
		if !isBase58String(hash) {
			return fmt.Errorf("Solana transaction signature must be valid base58")
		}

	case types.FamilyMove:
		// Sui digests are base58 encoded 32 bytes.
		if len(hash) < 32 || len(hash) > 44 || !isBase58String(hash) {
			return fmt.Errorf("Sui transaction digest must be 32-44 characters of base58")
		}

	default:
		return fmt.Errorf("unsupported chain for transaction hash validation: %s", chain)
	}

	return nil
}

func validationError(format string, args ...any) error {
	return types.NewError(types.ErrValidation, format, args...)
}

func chainLabel(chain string) string {
	if chain == "" {
		return "default"
	}
	return chain
}

func isHexString(s string) bool {
	return hexPattern.MatchString(s)
}

func isBase58String(s string) bool {
	return base58Pattern.MatchString(s)
}

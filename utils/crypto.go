package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverAddressFromSignature recovers the Ethereum address from a signature
func RecoverAddressFromSignature(hash []byte, signature string) (common.Address, error) {
	sigBytes, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", err)
	}

	if len(sigBytes) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sigBytes))
	}

	// wallets return v as 27/28
	if sigBytes[crypto.RecoveryIDOffset] >= 27 {
		sigBytes[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifyPersonalMessage checks a personal_sign signature against the expected signer.
func VerifyPersonalMessage(message, signature, expectedAddress string) (bool, error) {
	if !common.IsHexAddress(expectedAddress) {
		return false, fmt.Errorf("invalid signer address: %s", expectedAddress)
	}
	hash := accounts.TextHash([]byte(message))
	recoveredAddr, err := RecoverAddressFromSignature(hash, signature)
	if err != nil {
		return false, err
	}

	return recoveredAddr == common.HexToAddress(expectedAddress), nil
}

// NormalizeAddress returns the checksummed form of an EVM address, or "" when invalid
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}

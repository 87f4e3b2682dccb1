package utils

import (
	"errors" // Sentinel errors

	"github.com/ethereum/go-ethereum/accounts"       // EIP-191 text hash
	"github.com/ethereum/go-ethereum/common"         // Address parsing
	"github.com/ethereum/go-ethereum/common/hexutil" // Hex decoding
	"github.com/ethereum/go-ethereum/crypto"         // Public key recovery
)

// Signature verification errors
var (
	ErrInvalidAddress    = errors.New("invalid wallet address")                  // Not a 20-byte hex address
	ErrMalformedSig      = errors.New("malformed signature")                     // Not 65 hex-encoded bytes
	ErrSignatureMismatch = errors.New("signature does not match wallet address") // Recovered a different signer
)

// NormalizeAddress validates a hex wallet address and returns its checksummed form
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(address).Hex(), nil
}

// VerifyWalletSignature checks an EIP-191 personal_sign signature of message by address
func VerifyWalletSignature(address, message, signature string) error {
	if !common.IsHexAddress(address) {
		return ErrInvalidAddress
	}
	raw, err := hexutil.Decode(signature)
	if err != nil || len(raw) != crypto.SignatureLength {
		return ErrMalformedSig
	}
	sig := make([]byte, len(raw))
	copy(sig, raw)
	// Wallets emit v as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return ErrMalformedSig
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return ErrSignatureMismatch
	}
	return nil
}

package utils

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPersonal(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestVerifyWalletSignature(t *testing.T) {
	addr, sig := signPersonal(t, "hello")

	require.NoError(t, VerifyWalletSignature(addr, "hello", sig))
	assert.ErrorIs(t, VerifyWalletSignature(addr, "goodbye", sig), ErrSignatureMismatch)
}

func TestVerifyWalletSignatureOtherWallet(t *testing.T) {
	_, sig := signPersonal(t, "hello")
	other, _ := signPersonal(t, "hello")

	assert.ErrorIs(t, VerifyWalletSignature(other, "hello", sig), ErrSignatureMismatch)
}

func TestVerifyWalletSignatureMalformed(t *testing.T) {
	addr, _ := signPersonal(t, "hello")

	assert.ErrorIs(t, VerifyWalletSignature(addr, "hello", "0x1234"), ErrMalformedSig)
	assert.ErrorIs(t, VerifyWalletSignature(addr, "hello", "not-hex"), ErrMalformedSig)
	assert.ErrorIs(t, VerifyWalletSignature("0xnope", "hello", "0x00"), ErrInvalidAddress)
}

func TestNormalizeAddress(t *testing.T) {
	addr, _ := signPersonal(t, "x")

	got, err := NormalizeAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = NormalizeAddress("0x123")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

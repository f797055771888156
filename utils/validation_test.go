package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solgate/solgate/types"
)

func TestValidateAddress(t *testing.T) {
	solana := types.NetworkSolanaMainnet
	evm := types.NetworkBase

	require.NoError(t, ValidateAddress("4Nd1mYvM7K5Y3RrXbcYHMvyM8aRCoGU9nSRVKior9vF3", solana))
	require.NoError(t, ValidateAddress("0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1", evm))

	assert.Error(t, ValidateAddress("", solana))
	assert.Error(t, ValidateAddress("too-short", solana))
	assert.Error(t, ValidateAddress(strings.Repeat("0", 44), solana)) // 0 is not base58
	assert.Error(t, ValidateAddress("4Nd1mYvM7K5Y3RrXbcYHMvyM8aRCoGU9nSRVKior9vF3", evm))
	assert.Error(t, ValidateAddress("0x1234", evm))
	assert.Error(t, ValidateAddress("E4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE100", evm))
}

func TestValidateReference(t *testing.T) {
	solana := types.NetworkSolanaMainnet
	evm := types.NetworkBase

	sig := "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	require.NoError(t, ValidateReference(sig, solana))
	require.NoError(t, ValidateReference("0x"+strings.Repeat("ab", 32), evm))

	assert.Error(t, ValidateReference("", solana))
	assert.Error(t, ValidateReference("sig123", solana))
	assert.Error(t, ValidateReference(sig+sig, solana))
	assert.Error(t, ValidateReference(strings.Repeat("ab", 33), evm))
}

func TestBaseUnitConversion(t *testing.T) {
	sol := decimal.RequireFromString("1.5")
	lamports := ToBaseUnits(sol, 9)
	assert.True(t, lamports.Equal(decimal.NewFromInt(1_500_000_000)))
	assert.True(t, FromBaseUnits(lamports, 9).Equal(sol))

	// sub-unit remainders are truncated, never rounded up
	tiny := decimal.RequireFromString("0.0000000019")
	assert.True(t, ToBaseUnits(tiny, 9).Equal(decimal.NewFromInt(1)))
}

func TestValidateAmount(t *testing.T) {
	d, err := ValidateAmount("0.5")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.5")))

	_, err = ValidateAmount("")
	assert.Error(t, err)
	_, err = ValidateAmount("abc")
	assert.Error(t, err)
	_, err = ValidateAmount("-1")
	assert.Error(t, err)
}

func TestTruncateKey(t *testing.T) {
	key := "4Nd1mYvM7K5Y3RrXbcYHMvyM8aRCoGU9nSRVKior9vF3"
	assert.Equal(t, key[:8]+"..."+key[len(key)-8:], TruncateKey(key, 8))
	assert.Equal(t, "short", TruncateKey("short", 8))
}

func TestEstimateFee(t *testing.T) {
	assert.Equal(t, uint64(10_000), EstimateFee(1))
	assert.Equal(t, uint64(15_000), EstimateFee(2))
	assert.Equal(t, uint64(10_000), EstimateFee(0))
}

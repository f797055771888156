package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/types"
)

var (
	hexRe    = regexp.MustCompile("^[0-9a-fA-F]+$")
	base58Re = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// ValidateAmount checks that an amount string parses to a non-negative decimal.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// ValidateAddress validates an account address for the given network.
// Invalid input never reaches the ledger or the access records.
func ValidateAddress(address string, network types.Network) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	switch {
	case network.IsSolana():
		// base58, 32 bytes encoded as 32-44 characters
		if len(address) < 32 || len(address) > 44 {
			return fmt.Errorf("Solana address has invalid length")
		}
		if !base58Re.MatchString(address) {
			return fmt.Errorf("Solana address must be valid base58")
		}

	case network.IsEVM():
		if !strings.HasPrefix(address, "0x") {
			return fmt.Errorf("EVM address must start with 0x")
		}
		if len(address) != 42 {
			return fmt.Errorf("EVM address must be 42 characters long")
		}
		if !hexRe.MatchString(address[2:]) {
			return fmt.Errorf("EVM address must be valid hex")
		}

	default:
		return fmt.Errorf("unsupported network for address validation: %s", network)
	}

	return nil
}

// ValidateReference validates a transfer reference (transaction signature or
// hash) for the given network. The reference is otherwise opaque.
func ValidateReference(reference string, network types.Network) error {
	if reference == "" {
		return fmt.Errorf("reference cannot be empty")
	}

	switch {
	case network.IsSolana():
		// base58 ed25519 signature, typically 87-88 characters
		if len(reference) < 80 || len(reference) > 90 {
			return fmt.Errorf("Solana signature has invalid length")
		}
		if !base58Re.MatchString(reference) {
			return fmt.Errorf("Solana signature must be valid base58")
		}

	case network.IsEVM():
		if !strings.HasPrefix(reference, "0x") {
			return fmt.Errorf("EVM transaction hash must start with 0x")
		}
		if len(reference) != 66 {
			return fmt.Errorf("EVM transaction hash must be 66 characters long")
		}
		if !hexRe.MatchString(reference[2:]) {
			return fmt.Errorf("EVM transaction hash must be valid hex")
		}

	default:
		return fmt.Errorf("unsupported network for reference validation: %s", network)
	}

	return nil
}

// ToBaseUnits converts a display-unit amount to integer base units
// (SOL -> lamports, ETH -> wei), truncating any sub-unit remainder.
func ToBaseUnits(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(decimals).Truncate(0)
}

// FromBaseUnits converts integer base units back to display units.
func FromBaseUnits(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(-decimals)
}

// TruncateKey shortens an address or reference for log output.
func TruncateKey(key string, length int) string {
	if len(key) <= length*2 {
		return key
	}
	return key[:length] + "..." + key[len(key)-length:]
}

// EstimateFee estimates the network fee in base units for a simple transfer:
// 5000 lamports per required signature plus a base fee.
func EstimateFee(numSignatures int) uint64 {
	const perSignature = 5000
	const baseFee = 5000
	if numSignatures < 1 {
		numSignatures = 1
	}
	return uint64(numSignatures)*perSignature + baseFee
}

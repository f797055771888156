package types

// Network identifies the ledger a client talks to.
type Network string

const (
	// Solana networks
	NetworkSolanaMainnet Network = "solana-mainnet"
	NetworkSolanaDevnet  Network = "solana-devnet" // testnet

	// EVM networks
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia" // testnet
	NetworkPolygon     Network = "polygon"
)

func (n Network) IsSolana() bool {
	return n == NetworkSolanaMainnet || n == NetworkSolanaDevnet
}

func (n Network) IsEVM() bool {
	return n == NetworkBase || n == NetworkBaseSepolia || n == NetworkPolygon
}

func (n Network) IsTestnet() bool {
	return n == NetworkSolanaDevnet || n == NetworkBaseSepolia
}

func (n Network) String() string {
	return string(n)
}

// BaseUnitDecimals is the number of decimal places between the network's
// display unit and its smallest integer unit (SOL/lamports, ETH/wei).
func (n Network) BaseUnitDecimals() int32 {
	if n.IsEVM() {
		return 18
	}
	return 9
}

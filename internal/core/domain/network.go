package domain

// Network is an EVM-compatible chain the wallet collector can query.
type Network struct {
	Code             string `json:"code"` // Primary key (e.g. "ethereum", "polygon")
	Name             string `json:"name"`
	ChainID          int64  `json:"chainID"` // Verified against the RPC endpoint at dial time
	RPCEndpoint      string `json:"rpcEndpoint"`
	NativeCurrencyID string `json:"nativeCurrencyID"`
	IsEVM            bool   `json:"isEVM"`
	IsActive         bool   `json:"isActive"`
}

// WalletAddress binds an account to an address on one network.
type WalletAddress struct {
	AccountID string `json:"accountID"`
	Network   string `json:"network"`
	Address   string `json:"address"`
	IsActive  bool   `json:"isActive"`
}

package domain

// TokenMetadata is the on-chain metadata of an ERC-20 contract, used by
// token auto-discovery to create canonical currencies for unseen tokens.
type TokenMetadata struct {
	ContractAddress string `json:"contractAddress"`
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Decimals        int32  `json:"decimals"`
}

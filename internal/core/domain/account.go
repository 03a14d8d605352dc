package domain

import "time"

// AccountType classifies an account as asset-like or liability-like for
// net-worth aggregation.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
)

// Account represents an owned holding location: a bank, an exchange, a
// wallet, cash, or a liability. Accounts are created at bootstrap and are
// deactivated rather than deleted so historical snapshot rows stay valid.
type Account struct {
	AccountID string      `json:"accountID"` // Primary Key (UUID)
	Name      string      `json:"name"`      // Unique display name, referenced by collectors
	Type      AccountType `json:"type"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
